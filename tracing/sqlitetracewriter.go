package tracing

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// SQLiteTraceWriter is a trace writer that stores step records in a SQLite
// database.
type SQLiteTraceWriter struct {
	*sql.DB
	statement *sql.Stmt

	dbName    string
	records   []StepRecord
	batchSize int
}

// NewSQLiteTraceWriter creates a new SQLiteTraceWriter. The database file is
// path with a ".sqlite3" extension, created at Init.
func NewSQLiteTraceWriter(path string) *SQLiteTraceWriter {
	w := &SQLiteTraceWriter{
		dbName:    path,
		batchSize: 100000,
	}

	atexit.Register(func() { w.Flush() })

	return w
}

// NewSQLiteTraceWriterWithDB creates a SQLiteTraceWriter on an open
// database.
func NewSQLiteTraceWriterWithDB(db *sql.DB) *SQLiteTraceWriter {
	w := &SQLiteTraceWriter{
		DB:        db,
		batchSize: 100000,
	}

	atexit.Register(func() { w.Flush() })

	return w
}

// Path returns the database file name without extension. It is empty for
// writers created with a database.
func (t *SQLiteTraceWriter) Path() string {
	return t.dbName
}

// Init opens the database if needed, then creates the step table.
func (t *SQLiteTraceWriter) Init() {
	if t.DB == nil {
		t.createDatabase()
	}

	t.createTable()
	t.prepareStatement()
}

func (t *SQLiteTraceWriter) createDatabase() {
	if t.dbName == "" {
		t.dbName = "msq_trace_" + xid.New().String()
	}

	filename := t.dbName + ".sqlite3"
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	fmt.Fprintf(os.Stderr, "Trace is collected in database: %s\n", filename)

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	t.DB = db
}

func (t *SQLiteTraceWriter) createTable() {
	t.mustExecute(`
		create table step
		(
			id            varchar(200) not null primary key,
			generator     varchar(200) not null,
			step_index    integer      not null,
			seed          text         not null,
			square        text         not null,
			window_offset integer      not null,
			extracted     text         not null,
			result        text         not null,
			bits          text         not null,
			short         boolean      not null,
			zero          boolean      not null
		);
	`)

	t.mustExecute(`
		create index step_generator_index
			on step (generator, step_index);
	`)
}

func (t *SQLiteTraceWriter) prepareStatement() {
	sqlStr := `
		INSERT INTO step
		(
			id, generator, step_index, seed, square, window_offset,
			extracted, result, bits, short, zero
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := t.Prepare(sqlStr)
	if err != nil {
		panic(err)
	}

	t.statement = stmt
}

// Write buffers a record and flushes when the batch is full.
func (t *SQLiteTraceWriter) Write(record StepRecord) {
	t.records = append(t.records, record)
	if len(t.records) >= t.batchSize {
		t.Flush()
	}
}

// Flush writes all the buffered records to the database in one transaction.
func (t *SQLiteTraceWriter) Flush() {
	if len(t.records) == 0 {
		return
	}

	t.mustExecute("BEGIN TRANSACTION")
	defer t.mustExecute("COMMIT TRANSACTION")

	for _, r := range t.records {
		_, err := t.statement.Exec(
			r.ID,
			r.Generator,
			r.Index,
			r.Seed,
			r.Square,
			r.Offset,
			r.Extracted,
			r.Result,
			r.Bits,
			r.Short,
			r.Zero,
		)
		if err != nil {
			panic(err)
		}
	}

	t.records = nil
}

func (t *SQLiteTraceWriter) mustExecute(query string) sql.Result {
	res, err := t.Exec(query)
	if err != nil {
		fmt.Printf("Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}
