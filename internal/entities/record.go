package entities

// Versioned carries the optimistic concurrency counter. It starts at 1 on
// create and is bumped by every successful update.
type Versioned struct {
	Version uint `gorm:"not null;default:1" json:"version"`
}

func (v *Versioned) CurrentVersion() uint {
	return v.Version
}

func (v *Versioned) SetVersion(n uint) {
	v.Version = n
}

func (b *Book) GetID() uint {
	return b.ID
}

func (b *Book) SetID(id uint) {
	b.ID = id
}

func (m *Member) GetID() uint {
	return m.ID
}

func (m *Member) SetID(id uint) {
	m.ID = id
}

func (e *Employee) GetID() uint {
	return e.ID
}

func (e *Employee) SetID(id uint) {
	e.ID = id
}

func (s *Shift) GetID() uint {
	return s.ID
}

func (s *Shift) SetID(id uint) {
	s.ID = id
}

func (es *EmployeeShift) GetID() uint {
	return es.ID
}

func (es *EmployeeShift) SetID(id uint) {
	es.ID = id
}

func (b *BorrowedBook) GetID() uint {
	return b.ID
}

func (b *BorrowedBook) SetID(id uint) {
	b.ID = id
}
