package id2path

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
create table if not exists id2path_object (
	id         bigserial primary key,
	identifier varchar(256) not null unique,
	created    timestamptz not null default now(),
	updated    timestamptz not null default now()
);
create table if not exists id2path_path (
	id      bigserial primary key,
	path    varchar(1024) not null unique,
	type    smallint not null,
	label   varchar(64),
	created timestamptz not null default now(),
	updated timestamptz not null default now()
);
create table if not exists id2path_owner (
	object_id bigint not null references id2path_object(id) on delete cascade,
	path_id   bigint not null references id2path_path(id) on delete cascade,
	primary key (object_id, path_id)
);
`

// PGStore keeps the id2path tables in PostgreSQL.
type PGStore struct {
	db *sql.DB
}

// OpenPGStore connects to the database and creates missing tables.
func OpenPGStore(ctx context.Context, dsn string, pool int) (*PGStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if pool > 0 {
		db.SetMaxIdleConns(pool)
		db.SetMaxOpenConns(pool * 2)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to id2path database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating id2path schema: %w", err)
	}
	return NewPGStore(db), nil
}

// NewPGStore uses db as is; the schema must already exist.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *PGStore) GetObject(ctx context.Context, identifier string) (*TrackedObject, error) {
	var obj TrackedObject
	err := s.db.QueryRowContext(ctx,
		`select identifier, created, updated from id2path_object where identifier = $1`,
		identifier,
	).Scan(&obj.Identifier, &obj.Created, &obj.Updated)
	if err != nil {
		return nil, notFound(err)
	}
	return &obj, nil
}

func (s *PGStore) CreateObject(ctx context.Context, identifier string) (*TrackedObject, error) {
	var obj TrackedObject
	err := s.db.QueryRowContext(ctx,
		`insert into id2path_object (identifier) values ($1) returning identifier, created, updated`,
		identifier,
	).Scan(&obj.Identifier, &obj.Created, &obj.Updated)
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

func (s *PGStore) DeleteObject(ctx context.Context, identifier string) error {
	res, err := s.db.ExecContext(ctx, `delete from id2path_object where identifier = $1`, identifier)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) ListObjects(ctx context.Context, offset, limit int) ([]TrackedObject, error) {
	rows, err := s.db.QueryContext(ctx,
		`select identifier, created, updated from id2path_object
		order by identifier offset $1 limit nullif($2, 0)`,
		offset, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var objects []TrackedObject
	for rows.Next() {
		var obj TrackedObject
		if err := rows.Scan(&obj.Identifier, &obj.Created, &obj.Updated); err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, rows.Err()
}

func scanPaths(rows *sql.Rows) ([]PathItem, error) {
	defer rows.Close()

	var items []PathItem
	for rows.Next() {
		var item PathItem
		var label sql.NullString
		if err := rows.Scan(&item.Path, &item.Type, &label, &item.Created, &item.Updated); err != nil {
			return nil, err
		}
		item.Label = label.String
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PGStore) Paths(ctx context.Context, identifier string) ([]PathItem, error) {
	if _, err := s.GetObject(ctx, identifier); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`select p.path, p.type, p.label, p.created, p.updated
		from id2path_path p
		join id2path_owner ow on ow.path_id = p.id
		join id2path_object o on o.id = ow.object_id
		where o.identifier = $1
		order by p.path`,
		identifier,
	)
	if err != nil {
		return nil, err
	}
	return scanPaths(rows)
}

func (s *PGStore) GetPath(ctx context.Context, path string) (*PathItem, error) {
	var item PathItem
	var label sql.NullString
	err := s.db.QueryRowContext(ctx,
		`select path, type, label, created, updated from id2path_path where path = $1`,
		path,
	).Scan(&item.Path, &item.Type, &label, &item.Created, &item.Updated)
	if err != nil {
		return nil, notFound(err)
	}
	item.Label = label.String
	return &item, nil
}

func (s *PGStore) PutPath(ctx context.Context, identifier string, item PathItem) (created bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var objectID int64
	err = tx.QueryRowContext(ctx,
		`select id from id2path_object where identifier = $1`, identifier,
	).Scan(&objectID)
	if err != nil {
		return false, notFound(err)
	}

	// xmax is 0 for freshly inserted rows
	var pathID int64
	err = tx.QueryRowContext(ctx,
		`insert into id2path_path (path, type, label) values ($1, $2, nullif($3, ''))
		on conflict (path) do update set type = excluded.type, label = excluded.label, updated = now()
		returning id, (xmax = 0)`,
		item.Path, int(item.Type), item.Label,
	).Scan(&pathID, &created)
	if err != nil {
		return false, err
	}

	_, err = tx.ExecContext(ctx,
		`insert into id2path_owner (object_id, path_id) values ($1, $2) on conflict do nothing`,
		objectID, pathID,
	)
	if err != nil {
		return false, err
	}

	return created, tx.Commit()
}

func (s *PGStore) Owners(ctx context.Context, path string) ([]string, error) {
	if _, err := s.GetPath(ctx, path); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`select o.identifier
		from id2path_object o
		join id2path_owner ow on ow.object_id = o.id
		join id2path_path p on p.id = ow.path_id
		where p.path = $1
		order by o.identifier`,
		path,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}

func (s *PGStore) PathsWithPrefix(ctx context.Context, prefix string) ([]PathItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`select path, type, label, created, updated from id2path_path
		where left(path, length($1)) = $1
		order by path`,
		prefix,
	)
	if err != nil {
		return nil, err
	}
	return scanPaths(rows)
}

func (s *PGStore) Unlink(ctx context.Context, identifier, path string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from id2path_owner ow
		using id2path_object o, id2path_path p
		where ow.object_id = o.id and ow.path_id = p.id
		and o.identifier = $1 and p.path = $2`,
		identifier, path,
	)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (s *PGStore) DeletePath(ctx context.Context, path string) error {
	res, err := s.db.ExecContext(ctx, `delete from id2path_path where path = $1`, path)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (s *PGStore) Close() error {
	return s.db.Close()
}
