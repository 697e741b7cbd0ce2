package sqlinline

const QListRecentDonations = `--sql 3f2a8c1e-9d4b-4e7a-b2c6-51d8e0f4a793
select d.id, d.campaign_id, c.name, d.user_id, u.name, d.amount, d.status, d.created_at
from donations d
join campaigns c on c.id = d.campaign_id
join users u on u.id = d.user_id
order by d.created_at desc
limit $1::int;
`
