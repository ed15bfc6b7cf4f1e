package sqlinline

const QSelectIdentityUserByID = `--sql b21501d7-ac02-4e06-aa7a-fe24e56443d6
select
    id,
    first_name,
    full_name,
    public_metadata,
    created_at,
    updated_at
from identity_users
where id = $1
limit 1;
`

const QReplacePublicMetadata = `--sql 8142ccf0-50ef-41fd-a781-ed5ebe6c001b
update identity_users
set public_metadata = $2::jsonb,
    updated_at = now()
where id = $1;
`

const QUpsertIdentityUser = `--sql c237e67f-3b05-4c44-9312-afc17b080808
insert into identity_users (id, first_name, full_name, public_metadata, created_at, updated_at)
values ($1, $2, $3, coalesce($4::jsonb, '{}'::jsonb), now(), now())
on conflict (id) do update set
    first_name = excluded.first_name,
    full_name = excluded.full_name,
    updated_at = now()
returning id, first_name, full_name, public_metadata, created_at, updated_at;
`

const QSetUserRole = `--sql b9fb775b-c8a8-4ca4-8276-9f558e20b47a
update identity_users
set public_metadata = jsonb_set(
        case when jsonb_typeof(public_metadata) = 'object' then public_metadata else '{}'::jsonb end,
        '{role}', to_jsonb($2::text), true
    ),
    updated_at = now()
where id = $1
returning public_metadata;
`

const QListUsersByRole = `--sql 9025c931-6abe-4eee-b1bc-2816d1690ff7
select id, coalesce(full_name, first_name, '') as name, public_metadata->>'role' as role
from identity_users
where public_metadata->>'role' = $1
order by updated_at desc
limit $2;
`
