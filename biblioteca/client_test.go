package biblioteca

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, zap.NewNop().Sugar())
}

func TestLogin(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var creds map[string]string
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Fatalf("decode credentials: %v", err)
		}
		if creds["username"] != "admin" || creds["password"] != "secret" {
			t.Errorf("credentials not forwarded: %v", creds)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]any{"id": 7, "username": "admin", "email": "a@b.co", "role": "admin"},
		})
	})

	user, err := c.Login(context.Background(), "admin", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.Username != "admin" || user.Role != "admin" {
		t.Errorf("got user %+v", user)
	}
}

func TestLoginWithoutUserFails(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"token": "ignored"})
	})
	if _, err := c.Login(context.Background(), "admin", "secret"); err == nil {
		t.Fatal("a response without a user must fail the login")
	}
}

func TestLoginBadCredentials(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Credenciales inválidas"})
	})
	_, err := c.Login(context.Background(), "admin", "wrong")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("got %T, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Message != "Credenciales inválidas" {
		t.Errorf("got %+v", apiErr)
	}
}

func TestMutationsCarryActorHeader(t *testing.T) {
	var gotUserID, gotRequestID string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUserID = r.Header.Get("X-User-ID")
		gotRequestID = r.Header.Get("X-Request-Id")
		json.NewEncoder(w).Encode(map[string]any{"id": 1})
	})

	if _, err := c.CreateBook(context.Background(), 42, BookInput{Titulo: "T", Autor: "A", ISBN: "9781234567890"}); err != nil {
		t.Fatalf("CreateBook failed: %v", err)
	}
	if gotUserID != "42" {
		t.Errorf("X-User-ID = %q, want 42", gotUserID)
	}
	if gotRequestID == "" {
		t.Error("X-Request-Id missing")
	}
}

func TestReadsOmitActorHeader(t *testing.T) {
	var gotUserID string
	seen := false
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = true
		gotUserID = r.Header.Get("X-User-ID")
		json.NewEncoder(w).Encode([]any{})
	})

	if _, err := c.ListBooks(context.Background()); err != nil {
		t.Fatalf("ListBooks failed: %v", err)
	}
	if !seen {
		t.Fatal("no request made")
	}
	if gotUserID != "" {
		t.Errorf("X-User-ID = %q on a read, want empty", gotUserID)
	}
}

func TestAPIErrorWithDisponibles(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"message":     "No hay ejemplares disponibles",
			"disponibles": 0,
		})
	})

	_, err := c.CreateLoan(context.Background(), 1, LoanInput{LibroID: 2, ClienteID: 3})
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("got %T, want *APIError", err)
	}
	if apiErr.Disponibles == nil || *apiErr.Disponibles != 0 {
		t.Fatalf("disponibles not decoded: %+v", apiErr)
	}
	want := "No hay ejemplares disponibles. Disponibles: 0"
	if apiErr.Error() != want {
		t.Errorf("Error() = %q, want %q", apiErr.Error(), want)
	}
}

func TestErrorMessageFallback(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Second, zap.NewNop().Sugar())
	_, err := c.ListBooks(context.Background())
	if err == nil {
		t.Fatal("expected a transport error")
	}
	if got := ErrorMessage(err, "Could not load books"); got != "Could not load books" {
		t.Errorf("got %q, want the fallback", got)
	}
}

func TestErrorMessageEmptyBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.ListBooks(context.Background())
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("got %T, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Message != "" {
		t.Errorf("got %+v, want empty message", apiErr)
	}
	// Without a server-supplied message the caller's generic text wins.
	if got := ErrorMessage(err, "Could not load books"); got != "Could not load books" {
		t.Errorf("got %q, want the fallback", got)
	}
	if apiErr.Error() == "" {
		t.Error("Error() must not be empty")
	}
}

func TestListLoansFilter(t *testing.T) {
	var gotEstado string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prestamos/" {
			t.Errorf("path = %q, want /prestamos/", r.URL.Path)
		}
		gotEstado = r.URL.Query().Get("estado")
		json.NewEncoder(w).Encode([]any{})
	})

	if _, err := c.ListLoans(context.Background(), EstadoDevuelto); err != nil {
		t.Fatalf("ListLoans failed: %v", err)
	}
	if gotEstado != EstadoDevuelto {
		t.Errorf("estado = %q, want %q", gotEstado, EstadoDevuelto)
	}
}

func TestReturnLoanPath(t *testing.T) {
	var gotMethod, gotPath string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{"id": 9, "estado": EstadoDevuelto})
	})

	loan, err := c.ReturnLoan(context.Background(), 4, 9)
	if err != nil {
		t.Fatalf("ReturnLoan failed: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/prestamos/9/devolver" {
		t.Errorf("request = %s %s, want PUT /prestamos/9/devolver", gotMethod, gotPath)
	}
	if loan.Estado != EstadoDevuelto {
		t.Errorf("estado = %q, want %q", loan.Estado, EstadoDevuelto)
	}
}

func TestLoanReportQuery(t *testing.T) {
	var gotSearch, gotUserID string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reportes/prestamos" {
			t.Errorf("path = %q, want /reportes/prestamos", r.URL.Path)
		}
		gotSearch = r.URL.Query().Get("search")
		gotUserID = r.Header.Get("X-User-ID")
		json.NewEncoder(w).Encode([]any{})
	})

	if _, err := c.LoanReport(context.Background(), 7, "garcía márquez"); err != nil {
		t.Fatalf("LoanReport failed: %v", err)
	}
	if gotSearch != "garcía márquez" {
		t.Errorf("search = %q, want the raw term", gotSearch)
	}
	if gotUserID != "7" {
		t.Errorf("X-User-ID = %q, want 7", gotUserID)
	}
}

func TestGetBookActiveLoans(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/libros/5/prestamos-activos" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "libro_id": 5}, {"id": 2, "libro_id": 5}, {"id": 3, "libro_id": 5},
		})
	})

	loans, err := c.GetBookActiveLoans(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetBookActiveLoans failed: %v", err)
	}
	if len(loans) != 3 {
		t.Errorf("got %d loans, want 3", len(loans))
	}
}
