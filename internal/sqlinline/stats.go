package sqlinline

const QStatsSummary = `--sql a94d02c7-6e8f-4b35-8d71-2f0c9ba4e156
select
    (select count(*) from campaigns),
    (select count(*) from campaigns where status = 'active'),
    (select count(*) from donations),
    (select coalesce(sum(amount), 0) from donations where status <> 'voided'),
    (select count(*) from donations where created_at >= now() - interval '24 hours'),
    (select count(*) from campaign_members);
`
