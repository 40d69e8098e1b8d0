package postgres

// Schema creates the books and loans tables. The partial unique index is
// the schema-level backstop for the availability rule: at most one
// outstanding loan row may exist per book.
const Schema = `
CREATE TABLE IF NOT EXISTS books (
    id     uuid PRIMARY KEY,
    isbn   text NOT NULL UNIQUE,
    title  text NOT NULL,
    author text NOT NULL
);

CREATE TABLE IF NOT EXISTS loans (
    id             uuid PRIMARY KEY,
    book_id        uuid NOT NULL REFERENCES books (id),
    customer       text NOT NULL,
    customer_email text NOT NULL,
    loan_date      date NOT NULL,
    status         text NOT NULL CHECK (status IN ('OUTSTANDING', 'RETURNED'))
);

CREATE UNIQUE INDEX IF NOT EXISTS loans_one_outstanding_per_book
    ON loans (book_id)
    WHERE status = 'OUTSTANDING';

CREATE INDEX IF NOT EXISTS loans_overdue
    ON loans (loan_date)
    WHERE status = 'OUTSTANDING';
`
