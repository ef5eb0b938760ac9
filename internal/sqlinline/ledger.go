package sqlinline

const QLedgerBalanceForUpdate = `--sql 4a6d8224-e935-4ca9-a72d-4cc3efcf7faf
select credits
from users
where id = $1
for update;
`

const QLedgerUpdateBalance = `--sql bd49cd08-67fe-4503-a682-ab7f146690c9
update users
set credits = $2,
    updated_at = now()
where id = $1;
`

const QLedgerInsertTransaction = `--sql 093bc7f0-9fb5-416c-9911-9967b5309208
insert into credit_transactions (
    id, user_id, type, amount, balance_before, balance_after, job_id, reason
)
values ($1, $2, $3, $4, $5, $6, nullif($7, ''), $8)
returning created_at;
`

const QLedgerBalance = `--sql 05a2771f-4e02-4cbf-bebb-bbde2aa7fc18
select credits
from users
where id = $1;
`
