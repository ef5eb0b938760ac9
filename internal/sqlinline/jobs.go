package sqlinline

const QJobInsert = `--sql f97b45c5-8f5b-489f-8e6d-90bef02b4567
insert into jobs (
    id, user_id, source_image_url, product, items,
    total_credits, credits_spent, credits_refunded, status, progress
)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`

const QJobGetByID = `--sql dbed8e14-7cf5-45dc-9e0d-8e45918e21ed
select id, user_id, source_image_url, product, items,
       total_credits, credits_spent, credits_refunded, status, progress,
       created_at, updated_at, started_at, completed_at, failed_at, refunded_at
from jobs
where id = $1;
`

const QJobMarkProcessing = `--sql dd0e2d6a-3e32-4423-9372-84e6c3165b7c
update jobs
set status = 'PROCESSING',
    started_at = coalesce(started_at, now()),
    updated_at = now()
where id = $1;
`

const QJobMarkCompleted = `--sql 9817acce-bde2-4a41-9ae9-6805def58caf
update jobs
set status = 'COMPLETED',
    progress = 100,
    completed_at = now(),
    updated_at = now()
where id = $1;
`

const QJobMarkFailed = `--sql 51ddebaf-1dbd-4dbc-b0f7-db92d70c5ec7
update jobs
set status = 'FAILED',
    failed_at = now(),
    updated_at = now()
where id = $1;
`

const QJobMarkCancelled = `--sql 45a853bb-00d9-473c-a0d3-f7fa86ba2836
update jobs
set status = 'CANCELLED',
    updated_at = now()
where id = $1;
`

// QJobSetItemState merges a patch object into one element of the items array.
// The patch always carries status, progress, result and error so stale fields
// from an earlier attempt cannot leak through.
const QJobSetItemState = `--sql 0418b276-b1fa-46e2-b7d0-0d8fa39d2ee3
update jobs
set items = jsonb_set(items, array[$2::text], (items -> $2::int) || $3::jsonb),
    updated_at = now()
where id = $1;
`

const QJobSetAggregate = `--sql 3244489e-ac50-4ec6-ab75-ef0261b4461f
update jobs
set status = $2,
    progress = $3,
    updated_at = now()
where id = $1;
`

const QJobRecordRefund = `--sql bce05847-f6c8-4dee-b79e-8ec38493e7e2
update jobs
set credits_refunded = credits_refunded + $2,
    refunded_at = now(),
    status = $3,
    updated_at = now()
where id = $1;
`

const QJobListStale = `--sql 49b83d06-ff21-48fb-9fd8-93ea8425d829
select id, user_id, source_image_url, product, items,
       total_credits, credits_spent, credits_refunded, status, progress,
       created_at, updated_at, started_at, completed_at, failed_at, refunded_at
from jobs
where status in ('PENDING', 'PROCESSING')
  and updated_at < $1
order by updated_at asc
limit $2;
`
