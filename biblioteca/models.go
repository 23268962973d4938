package biblioteca

import "time"

// Loan states as reported by the service.
const (
	EstadoActivo   = "activo"
	EstadoDevuelto = "devuelto"
	EstadoAtrasado = "atrasado"
)

// AuthUser is the user object returned by /auth/login and kept in the
// session. Its role is a plain name, unlike the role object on managed
// user rows.
type AuthUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Role is a read-only lookup row used to populate the user form.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User is a managed system account.
type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	RoleID        int64     `json:"role_id"`
	Role          *Role     `json:"role"`
	FechaCreacion time.Time `json:"fecha_creacion"`
}

// RoleName resolves the display name, or "" when the role object is
// missing.
func (u *User) RoleName() string {
	if u.Role != nil && u.Role.Name != "" {
		return u.Role.Name
	}
	return ""
}

// Book is a catalog entry. DisponibilidadReal and PrestamosActivos are
// computed locally and never sent to the service.
type Book struct {
	ID                 int64     `json:"id"`
	Titulo             string    `json:"titulo"`
	Autor              string    `json:"autor"`
	Editorial          *string   `json:"editorial"`
	AnioPublicacion    *int      `json:"anio_publicacion"`
	ISBN               string    `json:"isbn"`
	CantidadDisponible int       `json:"cantidad_disponible"`
	FechaCreacion      time.Time `json:"fecha_creacion"`

	DisponibilidadReal int `json:"-"`
	PrestamosActivos   int `json:"-"`
}

// Cliente is a library patron, distinct from a system User.
type Cliente struct {
	ID                   int64     `json:"id"`
	Nombre               string    `json:"nombre"`
	Apellido             *string   `json:"apellido"`
	Correo               string    `json:"correo"`
	Telefono             *string   `json:"telefono"`
	NumeroIdentificacion string    `json:"numero_identificacion"`
	FechaCreacion        time.Time `json:"fecha_creacion"`
}

// FullName joins first and optional last name.
func (c *Cliente) FullName() string {
	if c.Apellido != nil && *c.Apellido != "" {
		return c.Nombre + " " + *c.Apellido
	}
	return c.Nombre
}

// Loan links a book to a patron and the user who registered it.
type Loan struct {
	ID                     int64      `json:"id"`
	LibroID                int64      `json:"libro_id"`
	ClienteID              int64      `json:"cliente_id"`
	UsuarioID              int64      `json:"usuario_id"`
	Libro                  *Book      `json:"libro"`
	Cliente                *Cliente   `json:"cliente"`
	Usuario                *AuthUser  `json:"usuario"`
	FechaPrestamo          time.Time  `json:"fecha_prestamo"`
	FechaDevolucionEsp     time.Time  `json:"fecha_devolucion_esperada"`
	FechaDevolucionReal    *time.Time `json:"fecha_devolucion_real"`
	Estado                 string     `json:"estado"`
}

// BookInput is the create/update payload for a book. Optional fields are
// sent as explicit nulls, matching what the service expects.
type BookInput struct {
	Titulo             string  `json:"titulo"`
	Autor              string  `json:"autor"`
	Editorial          *string `json:"editorial"`
	AnioPublicacion    *int    `json:"anio_publicacion"`
	ISBN               string  `json:"isbn"`
	CantidadDisponible int     `json:"cantidad_disponible"`
}

// ClienteInput is the create/update payload for a patron.
type ClienteInput struct {
	Nombre               string  `json:"nombre"`
	Apellido             *string `json:"apellido"`
	Correo               string  `json:"correo"`
	Telefono             *string `json:"telefono"`
	NumeroIdentificacion string  `json:"numero_identificacion"`
}

// LoanInput registers a new loan.
type LoanInput struct {
	LibroID            int64     `json:"libro_id"`
	ClienteID          int64     `json:"cliente_id"`
	FechaDevolucionEsp time.Time `json:"fecha_devolucion_esperada"`
}

// UserInput is the create/update payload for a system account. An empty
// password on update means "keep the existing one".
type UserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	RoleID   int64  `json:"role_id"`
	Password string `json:"password,omitempty"`
}
