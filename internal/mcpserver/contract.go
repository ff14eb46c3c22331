package mcpserver

// ScanFlowContract describes the code format and the scan flow so LLM
// consumers can drive lending operations the way a terminal would.
const ScanFlowContract = `# Lendscan Codes and Scan Flow

## Codes

Every book, borrower and borrow record has an opaque identifier that is
printed as a scannable code label.

| Prefix | Entity        | Example                       |
|--------|---------------|-------------------------------|
| ` + "`BK-`" + `  | book          | ` + "`BK-1718000000000-7Q2M4K9Z`" + `  |
| ` + "`USR-`" + ` | borrower      | ` + "`USR-1718000000000-A1B2C3D4`" + ` |
| ` + "`REC-`" + ` | borrow record | ` + "`REC-1718000000000-0X9Y8W7V`" + ` |

The middle segment is a millisecond timestamp; the tail is random. Treat the
whole string as opaque and never construct one by hand.

## Scan flow

1. Scan a borrower code. The terminal now waits for a book.
2. Scan a book code.
   - Available book: it is borrowed by that borrower.
   - Borrowed book: it is returned, whoever holds it.
3. Scanning a book code first, without a borrower, returns the book.

Use ` + "`borrow_book`" + ` and ` + "`return_book`" + ` for the same operations
without a terminal.

## Rules

1. Titles are unique ignoring case and surrounding whitespace. So are
   borrower names.
2. A book is either ` + "`available`" + ` or ` + "`borrowed`" + `; a borrowed book
   has exactly one open borrow record.
3. Records are never deleted. A return closes the open record by setting
   its ` + "`returnDate`" + `.
`
