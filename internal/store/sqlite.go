package store

import (
	"context"
	"database/sql"
	"errors"
)

// Collection returns the Model for the named collection.
func (s *SQLite) Collection(name string) Model {
	return &sqliteCollection{s: s, name: name}
}

type sqliteCollection struct {
	s    *SQLite
	name string
}

func (c *sqliteCollection) Find() Query {
	return &sqliteQuery{coll: c}
}

// FindOne retrieves a single document by ID.
func (c *sqliteCollection) FindOne(ctx context.Context, id string) (*Document, error) {
	row := c.s.db.QueryRowContext(ctx, `
		SELECT id, data, seq
		FROM documents
		WHERE collection = ? AND id = ?
	`, c.name, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wrap("find_one", c.name, ErrNotFound)
	}
	if err != nil {
		return nil, wrap("find_one", c.name, err)
	}
	return doc, nil
}

func (c *sqliteCollection) New(values map[string]any) *Document {
	return NewDocument(values)
}

// Save inserts unsaved documents and replaces the data of saved ones.
// Updating a document that no longer exists returns ErrNotFound.
func (c *sqliteCollection) Save(ctx context.Context, doc *Document) error {
	data, err := marshalFields(doc.Fields)
	if err != nil {
		return wrap("save", c.name, err)
	}

	if !doc.Saved() {
		id := c.s.ids.Generate()
		seq := c.s.clock.Next()
		_, err := c.s.db.ExecContext(ctx, `
			INSERT INTO documents (collection, id, data, seq)
			VALUES (?, ?, ?, ?)
		`, c.name, id, data, seq)
		if err != nil {
			return wrap("save", c.name, err)
		}
		doc.ID = id
		doc.Seq = seq
		return nil
	}

	result, err := c.s.db.ExecContext(ctx, `
		UPDATE documents SET data = ?
		WHERE collection = ? AND id = ?
	`, data, c.name, doc.ID)
	if err != nil {
		return wrap("save", c.name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return wrap("save", c.name, err)
	}
	if n == 0 {
		return wrap("save", c.name, ErrNotFound)
	}
	return nil
}

func (c *sqliteCollection) Remove(ctx context.Context, doc *Document) error {
	result, err := c.s.db.ExecContext(ctx, `
		DELETE FROM documents WHERE collection = ? AND id = ?
	`, c.name, doc.ID)
	if err != nil {
		return wrap("remove", c.name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return wrap("remove", c.name, err)
	}
	if n == 0 {
		return wrap("remove", c.name, ErrNotFound)
	}
	return nil
}

type sqliteQuery struct {
	coll *sqliteCollection
	sort *SortSpec
}

func (q *sqliteQuery) Sort(spec *SortSpec) Query {
	q.sort = spec
	return q
}

// Exec returns every document of the collection in the requested order.
// Returns an empty slice (not nil) for an empty collection.
func (q *sqliteQuery) Exec(ctx context.Context) ([]*Document, error) {
	order, orderArgs := sortClause(q.sort)
	args := append([]any{q.coll.name}, orderArgs...)

	rows, err := q.coll.s.db.QueryContext(ctx, `
		SELECT id, data, seq
		FROM documents
		WHERE collection = ?
		`+order, args...)
	if err != nil {
		return nil, wrap("find", q.coll.name, err)
	}
	defer rows.Close()

	docs := []*Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, wrap("find", q.coll.name, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("find", q.coll.name, err)
	}
	return docs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var data string
	if err := row.Scan(&doc.ID, &data, &doc.Seq); err != nil {
		return nil, err
	}
	fields, err := unmarshalFields(data)
	if err != nil {
		return nil, err
	}
	doc.Fields = fields
	return &doc, nil
}
