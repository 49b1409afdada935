package domain

// Contact is the persisted record for one person's contact details.
type Contact struct {
	ID        int64   `json:"id"         db:"id"`
	FirstName string  `json:"first_name" db:"first_name"`
	LastName  string  `json:"last_name"  db:"last_name"`
	Phone     string  `json:"phone"      db:"phone"`
	Email     *string `json:"email"      db:"email"`
	Address   *string `json:"address"    db:"address"`
}

// ContactField names a column that carries a uniqueness constraint.
type ContactField string

const (
	FieldPhone ContactField = "phone"
	FieldEmail ContactField = "email"
)

// ContactCreate is the typed input for creating a contact.
// Binding tags are enforced by gin before the request reaches the service.
type ContactCreate struct {
	FirstName string  `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string  `json:"last_name" binding:"required,min=1,max=100"`
	Phone     string  `json:"phone" binding:"required,min=10,max=20"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Address   *string `json:"address"`
}

// ToContact builds the record to insert. ID is left for the store to assign.
func (r ContactCreate) ToContact() Contact {
	return Contact{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Email:     r.Email,
		Address:   r.Address,
	}
}

// ContactUpdate is the typed input for a partial update. Only fields that
// were present in the request are applied.
type ContactUpdate struct {
	FirstName Optional[string] `json:"first_name"`
	LastName  Optional[string] `json:"last_name"`
	Phone     Optional[string] `json:"phone"`
	Email     Optional[string] `json:"email"`
	Address   Optional[string] `json:"address"`
}

// IsEmpty reports whether the update carries no fields at all.
func (u ContactUpdate) IsEmpty() bool {
	return !u.FirstName.Set && !u.LastName.Set && !u.Phone.Set && !u.Email.Set && !u.Address.Set
}

// ApplyTo merges the present fields onto c.
func (u ContactUpdate) ApplyTo(c *Contact) {
	if u.FirstName.Set && u.FirstName.Value != nil {
		c.FirstName = *u.FirstName.Value
	}
	if u.LastName.Set && u.LastName.Value != nil {
		c.LastName = *u.LastName.Value
	}
	if u.Phone.Set && u.Phone.Value != nil {
		c.Phone = *u.Phone.Value
	}
	if u.Email.Set {
		c.Email = u.Email.Value
	}
	if u.Address.Set {
		c.Address = u.Address.Value
	}
}
