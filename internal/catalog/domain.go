// internal/catalog/domain.go
package catalog

import "time"

// CopyState is the physical state of a copy. Values are stored in
// Spanish, as the front office records them.
type CopyState string

const (
	CopyAvailable CopyState = "disponible"
	CopyLoaned    CopyState = "prestado"
	CopyReserved  CopyState = "reservado"
	CopyLost      CopyState = "perdido"
	CopyDamaged   CopyState = "dañado"
)

// Book is a cataloged title.
type Book struct {
	ID        int64     `json:"id"`
	ISBN      string    `json:"isbn"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// Copy is a physical instance of a book.
type Copy struct {
	ID     int64     `json:"id"`
	BookID int64     `json:"book_id"`
	State  CopyState `json:"state"`
}

// Lendable reports whether a copy may leave the building.
func (c *Copy) Lendable() bool {
	return c.State == CopyAvailable
}
