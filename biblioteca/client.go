package biblioteca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// APIError is a structured error reported by the service. Disponibles is
// only present on loan-availability conflicts.
type APIError struct {
	Status      int
	Message     string
	Disponibles *int
}

func (e *APIError) Error() string {
	if e.Disponibles != nil {
		return fmt.Sprintf("%s. Disponibles: %d", e.Message, *e.Disponibles)
	}
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return e.Message
}

// ErrorMessage extracts the service-supplied message from err, falling back
// to a generic one for transport failures.
func ErrorMessage(err error, fallback string) string {
	if apiErr, ok := err.(*APIError); ok && apiErr.Message != "" {
		return apiErr.Error()
	}
	return fallback
}

// Client is a thin typed wrapper over the library service's REST API.
type Client struct {
	baseURL string
	http    *http.Client
	lg      *zap.SugaredLogger
}

// New builds a client for the service at baseURL.
func New(baseURL string, timeout time.Duration, lg *zap.SugaredLogger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		lg:      lg,
	}
}

type errorBody struct {
	Message     string `json:"message"`
	Err         string `json:"error"`
	Disponibles *int   `json:"disponibles"`
}

// do issues one request. actorID > 0 adds the advisory X-User-ID header;
// mutating calls always pass it, reads pass 0.
func (c *Client) do(ctx context.Context, method, path string, actorID int64, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if actorID > 0 {
		req.Header.Set("X-User-ID", fmt.Sprintf("%d", actorID))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.lg.Warnw("request failed", "method", method, "path", path, "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Message stays empty unless the body carries one, so callers fall
		// back to their own generic text.
		apiErr := &APIError{Status: resp.StatusCode}
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil {
			if eb.Message != "" {
				apiErr.Message = eb.Message
			} else if eb.Err != "" {
				apiErr.Message = eb.Err
			}
			apiErr.Disponibles = eb.Disponibles
		}
		c.lg.Warnw("api error", "method", method, "path", path, "status", resp.StatusCode, "message", apiErr.Message)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ------------------ Auth ------------------

// Login exchanges credentials for a user object. A response without a user
// is treated as a failed login.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthUser, error) {
	payload := map[string]string{"username": username, "password": password}
	var resp struct {
		User *AuthUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", 0, payload, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, &APIError{Status: http.StatusUnauthorized, Message: "login response carried no user"}
	}
	return resp.User, nil
}

// ------------------ Books ------------------

func (c *Client) ListBooks(ctx context.Context) ([]*Book, error) {
	var books []*Book
	if err := c.do(ctx, http.MethodGet, "/libros/", 0, nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// GetBookActiveLoans returns the active loans for one book. The book edit
// guard uses its length.
func (c *Client) GetBookActiveLoans(ctx context.Context, bookID int64) ([]*Loan, error) {
	var loans []*Loan
	path := fmt.Sprintf("/libros/%d/prestamos-activos", bookID)
	if err := c.do(ctx, http.MethodGet, path, 0, nil, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

func (c *Client) CreateBook(ctx context.Context, actorID int64, in BookInput) (*Book, error) {
	var book Book
	if err := c.do(ctx, http.MethodPost, "/libros/", actorID, in, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (c *Client) UpdateBook(ctx context.Context, actorID, id int64, in BookInput) (*Book, error) {
	var book Book
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/libros/%d", id), actorID, in, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (c *Client) DeleteBook(ctx context.Context, actorID, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/libros/%d", id), actorID, nil, nil)
}

// ------------------ Clientes ------------------

func (c *Client) ListClientes(ctx context.Context) ([]*Cliente, error) {
	var clientes []*Cliente
	if err := c.do(ctx, http.MethodGet, "/clientes/", 0, nil, &clientes); err != nil {
		return nil, err
	}
	return clientes, nil
}

func (c *Client) CreateCliente(ctx context.Context, actorID int64, in ClienteInput) (*Cliente, error) {
	var cliente Cliente
	if err := c.do(ctx, http.MethodPost, "/clientes/", actorID, in, &cliente); err != nil {
		return nil, err
	}
	return &cliente, nil
}

func (c *Client) UpdateCliente(ctx context.Context, actorID, id int64, in ClienteInput) (*Cliente, error) {
	var cliente Cliente
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/clientes/%d", id), actorID, in, &cliente); err != nil {
		return nil, err
	}
	return &cliente, nil
}

func (c *Client) DeleteCliente(ctx context.Context, actorID, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/clientes/%d", id), actorID, nil, nil)
}

// ------------------ Loans ------------------

// ListLoans fetches loans filtered by estado ("activo" or "devuelto").
func (c *Client) ListLoans(ctx context.Context, estado string) ([]*Loan, error) {
	var loans []*Loan
	path := "/prestamos/?estado=" + url.QueryEscape(estado)
	if err := c.do(ctx, http.MethodGet, path, 0, nil, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

func (c *Client) CreateLoan(ctx context.Context, actorID int64, in LoanInput) (*Loan, error) {
	var loan Loan
	if err := c.do(ctx, http.MethodPost, "/prestamos/", actorID, in, &loan); err != nil {
		return nil, err
	}
	return &loan, nil
}

// ReturnLoan registers the devolution of an active loan.
func (c *Client) ReturnLoan(ctx context.Context, actorID, id int64) (*Loan, error) {
	var loan Loan
	path := fmt.Sprintf("/prestamos/%d/devolver", id)
	if err := c.do(ctx, http.MethodPut, path, actorID, struct{}{}, &loan); err != nil {
		return nil, err
	}
	return &loan, nil
}

// LoanReport searches loans by book title/author or patron name. Admin-only
// on the server side; actorID tags the request.
func (c *Client) LoanReport(ctx context.Context, actorID int64, search string) ([]*Loan, error) {
	var loans []*Loan
	path := "/reportes/prestamos?search=" + url.QueryEscape(search)
	if err := c.do(ctx, http.MethodGet, path, actorID, nil, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

// ------------------ Users & roles ------------------

func (c *Client) ListUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	if err := c.do(ctx, http.MethodGet, "/users/", 0, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) ListRoles(ctx context.Context) ([]*Role, error) {
	var roles []*Role
	if err := c.do(ctx, http.MethodGet, "/roles/", 0, nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (c *Client) CreateUser(ctx context.Context, actorID int64, in UserInput) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPost, "/users/", actorID, in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, actorID, id int64, in UserInput) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/users/%d", id), actorID, in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, actorID, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), actorID, nil, nil)
}
