// Package sqlitevec provides a local SQLite-backed index driver using
// sqlite-vec. It lets the full pipeline run without hosted services.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/quarrylabs/ragcheck/pkg/index"
)

// Driver implements index.Driver and index.Lifecycle using SQLite with the
// sqlite-vec extension. A local index is always ready, so the lifecycle
// side is trivial: CreateIndex ensures the schema, WaitReady returns
// immediately.
type Driver struct {
	db         *sql.DB
	name       string
	dimensions uint
	logger     *zap.Logger
}

// Config holds configuration for the sqlite-vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Name is the logical index name reported by lifecycle calls.
	Name string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver creates a new SQLite index driver backed by sqlite-vec.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	// enable connections to have the sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	d := &Driver{
		db:         db,
		name:       c.Name,
		dimensions: c.Dimensions,
		logger:     logger,
	}

	if err := d.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("sqlite-vec index driver initialized",
		zap.String("db_path", c.DBPath),
		zap.Uint("dimensions", c.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return d, nil
}

// ensureSchema creates the document mapping table and the vec0 virtual
// table. vec0 virtual tables use integer rowids, so string document IDs
// map through vec_documents.
func (d *Driver) ensureSchema() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS vec_documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT NOT NULL,
			namespace TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			UNIQUE(doc_id, namespace)
		)
	`)
	if err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(embedding float[%d])`,
		d.dimensions,
	)
	if _, err := d.db.Exec(createVec); err != nil {
		return fmt.Errorf("creating vec0 table: %w", err)
	}

	return nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// CreateIndex ensures the schema exists. The spec dimension must match
// the configured one; a local vec0 table cannot change dimension in place.
func (d *Driver) CreateIndex(_ context.Context, spec index.Spec) error {
	if spec.Dimension != 0 && spec.Dimension != d.dimensions {
		return fmt.Errorf("index dimension %d does not match configured dimension %d", spec.Dimension, d.dimensions)
	}
	return d.ensureSchema()
}

// DescribeIndex reports the local index, which is always ready.
func (d *Driver) DescribeIndex(_ context.Context, name string) (*index.Status, error) {
	if d.name != "" && name != d.name {
		return nil, fmt.Errorf("%w: index %q", index.ErrNotFound, name)
	}
	return &index.Status{
		Name:      name,
		Dimension: d.dimensions,
		Ready:     true,
		State:     "Ready",
	}, nil
}

// ListIndexes returns the single local index name.
func (d *Driver) ListIndexes(context.Context) ([]string, error) {
	if d.name == "" {
		return nil, nil
	}
	return []string{d.name}, nil
}

// DeleteIndex drops all stored vectors and documents.
func (d *Driver) DeleteIndex(ctx context.Context, name string) error {
	if d.name != "" && name != d.name {
		return fmt.Errorf("%w: index %q", index.ErrNotFound, name)
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM vec_embeddings`); err != nil {
		return fmt.Errorf("clearing embeddings: %w", err)
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM vec_documents`); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}
	return nil
}

// WaitReady returns immediately; a local index has no warm-up phase.
func (d *Driver) WaitReady(context.Context, string) error {
	return nil
}

// Upsert stores documents with their embeddings.
// Existing (doc_id, namespace) pairs are overwritten.
func (d *Driver) Upsert(ctx context.Context, namespace string, docs []index.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, doc := range docs {
		metaJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling metadata for doc %s: %w", doc.ID, err)
		}

		embBlob := serializeFloat32(doc.Values)

		var existingRowID int64
		err = tx.QueryRowContext(ctx,
			`SELECT rowid FROM vec_documents WHERE doc_id = ? AND namespace = ?`,
			doc.ID, namespace,
		).Scan(&existingRowID)

		switch err {
		case nil:
			if _, err := tx.ExecContext(ctx,
				`UPDATE vec_documents SET metadata = ? WHERE rowid = ?`,
				string(metaJSON), existingRowID,
			); err != nil {
				return fmt.Errorf("updating document %s: %w", doc.ID, err)
			}

			// vec0 does not support UPDATE, replace via DELETE + INSERT
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM vec_embeddings WHERE rowid = ?`, existingRowID,
			); err != nil {
				return fmt.Errorf("deleting old embedding for doc %s: %w", doc.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
				existingRowID, embBlob,
			); err != nil {
				return fmt.Errorf("re-inserting embedding for doc %s: %w", doc.ID, err)
			}
		case sql.ErrNoRows:
			result, err := tx.ExecContext(ctx,
				`INSERT INTO vec_documents(doc_id, namespace, metadata) VALUES (?, ?, ?)`,
				doc.ID, namespace, string(metaJSON),
			)
			if err != nil {
				return fmt.Errorf("inserting document %s: %w", doc.ID, err)
			}

			rowID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("getting rowid for doc %s: %w", doc.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
				rowID, embBlob,
			); err != nil {
				return fmt.Errorf("inserting embedding for doc %s: %w", doc.ID, err)
			}
		default:
			return fmt.Errorf("checking for existing document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("upserted documents into sqlite-vec",
		zap.Int("count", len(docs)),
		zap.String("namespace", namespace),
	)

	return nil
}

// Query finds the topK most similar documents to the given embedding
// within the namespace.
func (d *Driver) Query(ctx context.Context, namespace string, embedding []float32, topK int) ([]index.Match, error) {
	if topK <= 0 {
		topK = 10
	}

	queryBlob := serializeFloat32(embedding)

	// KNN query via vec0 MATCH, joined back for doc_id and metadata.
	// The namespace filter applies after the KNN scan, so ask vec0 for a
	// few extra neighbors to keep topK results after filtering.
	rows, err := d.db.QueryContext(ctx, `
		SELECT
			d.doc_id,
			d.metadata,
			ve.distance
		FROM vec_embeddings ve
		INNER JOIN vec_documents d ON d.rowid = ve.rowid
		WHERE ve.embedding MATCH ?
			AND ve.k = ?
			AND d.namespace = ?
		ORDER BY ve.distance
	`, queryBlob, topK*4, namespace)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var matches []index.Match
	for rows.Next() {
		var docID, metaJSON string
		var distance float64
		if err := rows.Scan(&docID, &metaJSON, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		var metadata map[string]any
		if err := json.Unmarshal([]byte(metaJSON), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata for doc %s: %w", docID, err)
		}

		matches = append(matches, index.Match{
			Document: index.Document{
				ID:       docID,
				Metadata: metadata,
			},
			// Convert distance to similarity score: lower distance = higher similarity
			Score: float32(1.0 / (1.0 + distance)),
		})

		if len(matches) == topK {
			break
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried sqlite-vec",
		zap.Int("matches", len(matches)),
		zap.String("namespace", namespace),
	)

	return matches, nil
}

// List returns the document IDs in the namespace.
func (d *Driver) List(ctx context.Context, namespace string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT doc_id FROM vec_documents WHERE namespace = ? ORDER BY rowid`,
		namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning document ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document IDs: %w", err)
	}

	return ids, nil
}

// Fetch retrieves documents by their IDs.
func (d *Driver) Fetch(ctx context.Context, namespace string, ids []string) ([]index.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	args = append(args, namespace)

	query := fmt.Sprintf(`
		SELECT d.doc_id, d.metadata, d.rowid
		FROM vec_documents d
		WHERE d.doc_id IN (%s) AND d.namespace = ?
	`, strings.Join(placeholders, ","))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	// Collect rows first so the cursor is closed before issuing the
	// per-document embedding queries (SQLite uses a single connection).
	type docRow struct {
		docID    string
		metaJSON string
		rowID    int64
	}
	var docRows []docRow

	for rows.Next() {
		var dr docRow
		if err := rows.Scan(&dr.docID, &dr.metaJSON, &dr.rowID); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docRows = append(docRows, dr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	rows.Close()

	docs := make([]index.Document, 0, len(docRows))
	for _, dr := range docRows {
		doc := index.Document{ID: dr.docID}

		if err := json.Unmarshal([]byte(dr.metaJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata for doc %s: %w", dr.docID, err)
		}

		var embBlob []byte
		err := d.db.QueryRowContext(ctx,
			`SELECT embedding FROM vec_embeddings WHERE rowid = ?`, dr.rowID,
		).Scan(&embBlob)
		if err == nil && len(embBlob) > 0 {
			doc.Values, _ = deserializeFloat32(embBlob)
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

// Update replaces the vector values of a single document.
func (d *Driver) Update(ctx context.Context, namespace string, id string, values []float32) error {
	var rowID int64
	err := d.db.QueryRowContext(ctx,
		`SELECT rowid FROM vec_documents WHERE doc_id = ? AND namespace = ?`,
		id, namespace,
	).Scan(&rowID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: document %q", index.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("looking up document %s: %w", id, err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM vec_embeddings WHERE rowid = ?`, rowID,
	); err != nil {
		return fmt.Errorf("deleting old embedding for doc %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
		rowID, serializeFloat32(values),
	); err != nil {
		return fmt.Errorf("inserting new embedding for doc %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	args = append(args, namespace)
	inClause := strings.Join(placeholders, ",")

	query := fmt.Sprintf(
		`SELECT rowid FROM vec_documents WHERE doc_id IN (%s) AND namespace = ?`, inClause,
	)
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying rowids for deletion: %w", err)
	}

	var rowIDs []int64
	for rows.Next() {
		var rowID int64
		if err := rows.Scan(&rowID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning rowid: %w", err)
		}
		rowIDs = append(rowIDs, rowID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rowids: %w", err)
	}

	for _, rowID := range rowIDs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM vec_embeddings WHERE rowid = ?`, rowID,
		); err != nil {
			return fmt.Errorf("deleting embedding rowid %d: %w", rowID, err)
		}
	}

	deleteQuery := fmt.Sprintf(
		`DELETE FROM vec_documents WHERE doc_id IN (%s) AND namespace = ?`, inClause,
	)
	if _, err := tx.ExecContext(ctx, deleteQuery, args...); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("deleted documents from sqlite-vec",
		zap.Int("count", len(ids)),
		zap.String("namespace", namespace),
	)

	return nil
}

// Stats returns per-namespace and total vector counts.
func (d *Driver) Stats(ctx context.Context) (*index.Stats, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT namespace, COUNT(*) FROM vec_documents GROUP BY namespace`,
	)
	if err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}
	defer rows.Close()

	namespaces := make(map[string]uint64)
	var total uint64
	for rows.Next() {
		var ns string
		var count uint64
		if err := rows.Scan(&ns, &count); err != nil {
			return nil, fmt.Errorf("scanning namespace count: %w", err)
		}
		namespaces[ns] = count
		total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating namespace counts: %w", err)
	}

	return &index.Stats{
		Dimension:  d.dimensions,
		TotalCount: total,
		Namespaces: namespaces,
	}, nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}

var (
	_ index.Driver    = (*Driver)(nil)
	_ index.Lifecycle = (*Driver)(nil)
)
