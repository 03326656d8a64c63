// Package extract turns uploaded files into plain text for indexing.
//
// PDF files are read with ledongthuc/pdf, Word documents (.docx) are read
// paragraph by paragraph, and everything else that sniffs as text is decoded
// as UTF-8 with any byte order mark removed. Files whose extension is not
// recognized are classified by content with mimetype.
package extract
