package queue

import (
	"fmt"
	"strings"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
)

// Stream names follow the "tasks:v1:<worker>" convention so versioned queue
// migrations can run side by side.
const (
	QueueImage    = "tasks:v1:image"
	QueueText     = "tasks:v1:text"
	QueueVoice    = "tasks:v1:voice"
	QueueCaptions = "tasks:v1:captions"
	QueueVideo    = "tasks:v1:video"

	// ResultQueue is the single channel through which every worker reports
	// completion or terminal failure back to the orchestrator.
	ResultQueue = "tasks:v1:orchestrator-result"
)

// ForItemType maps an item type to the stream its worker consumes. The switch
// is exhaustive: adding an item type without routing it is a compile-time
// smell caught here rather than a silent string-map fallback.
func ForItemType(t domain.ItemType) (string, error) {
	switch t {
	case domain.ItemEnhancedImages:
		return QueueImage, nil
	case domain.ItemViralCopy, domain.ItemProductDescription:
		return QueueText, nil
	case domain.ItemVoiceOver:
		return QueueVoice, nil
	case domain.ItemCaptions:
		return QueueCaptions, nil
	case domain.ItemPromotionalVideo:
		return QueueVideo, nil
	default:
		return "", fmt.Errorf("no queue for item type %q", t)
	}
}

// AllTaskQueues lists every worker-facing stream (excludes the result stream).
func AllTaskQueues() []string {
	return []string{QueueImage, QueueText, QueueVoice, QueueCaptions, QueueVideo}
}

// DLQName returns the dead-letter stream for a queue.
// tasks:v1:image -> dlq:v1:image
func DLQName(queueName string) string {
	parts := strings.Split(queueName, ":")
	return fmt.Sprintf("dlq:v1:%s", parts[len(parts)-1])
}
