package sqlinline

const QUserTotalDonations = `--sql 7c51b9e2-0a3f-4d68-9e1b-c42af6d08315
select coalesce(sum(amount), 0)
from donations
where user_id = $1::uuid
  and status <> 'voided';
`
