package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"biblioteca-admin/biblioteca"
	"biblioteca-admin/config"
	"biblioteca-admin/logger"
	"biblioteca-admin/session"
	"biblioteca-admin/ui"
)

const dateLayout = "2006-01-02"

// View names persisted to the session, so a restart resumes the same screen.
const (
	viewBooks    = "book-management"
	viewClientes = "client-management"
	viewLoans    = "loan-management"
	viewUsers    = "user-management"
)

// action tells the shell what to do after a view loop returns.
type action int

const (
	actionBack action = iota
	actionLogout
	actionExit
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "biblioteca-admin",
		Short:        "Interactive admin console for the Biblioteca BuenaVentura service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole()
		},
	}
	root.AddCommand(newReportCmd())
	return root
}

func newReportCmd() *cobra.Command {
	var username, search string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export the loan report for a search term (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(username, search)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "admin username; password comes from BIBLIOTECA_PASSWORD or a prompt")
	cmd.Flags().StringVarP(&search, "search", "s", "", "search term: book title, author, or patron name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("search")
	return cmd
}

// readPassword securely reads a password with masking.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

// console holds the pieces every view needs. Session state lives here and
// in the store, never in ambient globals.
type console struct {
	cfg   config.Config
	api   *biblioteca.Client
	store *session.Store
	sc    *bufio.Scanner
	user  *biblioteca.AuthUser
}

func runConsole() error {
	cfg := config.Load()
	lg := logger.New(cfg.LogLevel, cfg.LogPath())
	defer lg.Sync()

	store, err := session.Open(cfg.SessionPath(), lg)
	if err != nil {
		// The console still works, it just forgets the session on exit.
		lg.Warnw("session store unavailable", "error", err)
		store = nil
	}
	defer store.Close()

	c := &console{
		cfg:   cfg,
		api:   biblioteca.New(cfg.APIBaseURL, cfg.HTTPTimeout, lg),
		store: store,
		sc:    bufio.NewScanner(os.Stdin),
	}
	return c.run()
}

func (c *console) run() error {
	fmt.Println("Biblioteca BuenaVentura — admin console")

	c.user = c.store.User()
	if c.user != nil {
		fmt.Printf("Session restored for %s (%s)\n", c.user.Username, c.user.Role)
	}

	for {
		if c.user == nil {
			if !c.login() {
				return nil
			}
		}
		if !c.dashboard() {
			return nil
		}
	}
}

func (c *console) form() *ui.Form {
	return &ui.Form{In: c.sc, Out: os.Stdout, ReadSecret: readPassword}
}

func (c *console) isAdmin() bool {
	return c.user != nil && c.user.Role == "admin"
}

// canManageInventory gates book and loan mutations.
func (c *console) canManageInventory() bool {
	return c.user != nil && (c.user.Role == "admin" || c.user.Role == "gestor")
}

// ---------------------------------------------------------------------------
// Authentication gate
// ---------------------------------------------------------------------------

func (c *console) login() bool {
	for {
		fmt.Print("\nUsername: ")
		if !c.sc.Scan() {
			return false
		}
		username := strings.TrimSpace(c.sc.Text())
		if username == "" {
			fmt.Println("Username and password are required")
			continue
		}
		password, err := readPassword("Password: ")
		if err != nil {
			fmt.Printf("Error reading password: %v\n", err)
			continue
		}
		if password == "" {
			fmt.Println("Username and password are required")
			continue
		}

		fmt.Println("Signing in...")
		user, err := c.api.Login(context.Background(), username, password)
		if err != nil {
			fmt.Println(biblioteca.ErrorMessage(err, "Could not sign in. Try again."))
			continue
		}
		c.user = user
		c.store.SaveUser(user)
		fmt.Printf("Welcome, %s (%s)\n", user.Username, user.Role)
		return true
	}
}

func (c *console) logout() {
	c.store.Clear()
	c.user = nil
	fmt.Println("Session closed")
}

// ---------------------------------------------------------------------------
// Dashboard / shell
// ---------------------------------------------------------------------------

// dashboard runs until logout (true) or exit (false). A saved view from a
// previous run is entered before the menu shows.
func (c *console) dashboard() bool {
	if view := c.store.View(); view != session.DefaultView {
		switch c.enterView(view) {
		case actionExit:
			return false
		case actionLogout:
			return true
		}
	}

	for {
		c.printDashboard()
		fmt.Print("\n> ")
		if !c.sc.Scan() {
			return false
		}
		cmd := strings.ToLower(strings.TrimSpace(c.sc.Text()))

		var view string
		switch cmd {
		case "books":
			view = viewBooks
		case "clients":
			view = viewClientes
		case "loans":
			view = viewLoans
		case "users":
			if !c.isAdmin() {
				fmt.Println("User management is available to administrators only")
				continue
			}
			view = viewUsers
		case "logout":
			c.logout()
			return true
		case "exit":
			fmt.Println("Goodbye!")
			return false
		case "":
			continue
		default:
			fmt.Println("Unknown command. Type one of the options listed above.")
			continue
		}

		c.store.SaveView(view)
		switch c.enterView(view) {
		case actionExit:
			return false
		case actionLogout:
			return true
		}
	}
}

func (c *console) printDashboard() {
	fmt.Println("\n== Control panel ==")
	fmt.Printf("Signed in as %s <%s> (%s)\n", c.user.Username, c.user.Email, c.user.Role)
	fmt.Println("  books   - manage the book catalog")
	fmt.Println("  clients - manage library patrons")
	fmt.Println("  loans   - register loans and returns")
	if c.isAdmin() {
		fmt.Println("  users   - manage system accounts (admin only)")
	}
	fmt.Println("  logout  - close the session")
	fmt.Println("  exit    - leave (session is kept)")
}

func (c *console) enterView(view string) action {
	var res action
	switch view {
	case viewBooks:
		res = c.handleBooks()
	case viewClientes:
		res = c.handleClientes()
	case viewLoans:
		res = c.handleLoans()
	case viewUsers:
		if c.isAdmin() {
			res = c.handleUsers()
		}
	}
	switch res {
	case actionBack:
		c.store.ClearView()
	case actionLogout:
		c.logout()
	}
	return res
}

// ---------------------------------------------------------------------------
// Shared command plumbing
// ---------------------------------------------------------------------------

// splitCommand separates "edit 12" into a lowercase verb and its argument.
func splitCommand(line string) (string, string) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return "", ""
	}
	return strings.ToLower(fields[0]), strings.Join(fields[1:], " ")
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %q", arg)
	}
	return id, nil
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

func bookColumns() []ui.Column[*biblioteca.Book] {
	return []ui.Column[*biblioteca.Book]{
		{Header: "ID", Width: 5, Value: func(b *biblioteca.Book) string { return strconv.FormatInt(b.ID, 10) }},
		{Header: "Title", Width: 30, Value: func(b *biblioteca.Book) string { return b.Titulo }},
		{Header: "Author", Width: 25, Value: func(b *biblioteca.Book) string { return b.Autor }},
		{Header: "ISBN", Width: 14, Value: func(b *biblioteca.Book) string { return b.ISBN }},
		{Header: "Avail", Width: 8, Value: func(b *biblioteca.Book) string {
			return fmt.Sprintf("%d/%d", b.DisponibilidadReal, b.CantidadDisponible)
		}},
		{Header: "Status", Width: 12, Value: func(b *biblioteca.Book) string {
			return biblioteca.AvailabilityLabel(b.DisponibilidadReal, b.CantidadDisponible)
		}},
	}
}

func (c *console) handleBooks() action {
	ctx := context.Background()
	books := c.fetchBooks(ctx, nil)
	table := ui.NewTable(bookColumns())

	for {
		fmt.Println("\n== Books ==")
		table.Render(os.Stdout, books, "No books registered")
		if c.canManageInventory() {
			fmt.Println("\nCommands: n, p, view <id>, add, edit <id>, del <id>, refresh, back, logout, exit")
		} else {
			fmt.Println("\nCommands: n, p, view <id>, refresh, back, logout, exit")
		}
		fmt.Print("[books] > ")
		if !c.sc.Scan() {
			return actionExit
		}
		cmd, arg := splitCommand(c.sc.Text())

		switch cmd {
		case "n":
			if !table.Pager.Next() {
				fmt.Println("Already on the last page")
			}
		case "p":
			if !table.Pager.Prev() {
				fmt.Println("Already on the first page")
			}
		case "view":
			if book := c.findBook(books, arg); book != nil {
				printBookDetail(book)
			}
		case "add":
			if !c.canManageInventory() {
				fmt.Println("Your role cannot modify books")
				continue
			}
			if c.addBook(ctx) {
				books = c.fetchBooks(ctx, books)
			}
		case "edit":
			if !c.canManageInventory() {
				fmt.Println("Your role cannot modify books")
				continue
			}
			if book := c.findBook(books, arg); book != nil && c.editBook(ctx, book) {
				books = c.fetchBooks(ctx, books)
			}
		case "del":
			if !c.canManageInventory() {
				fmt.Println("Your role cannot modify books")
				continue
			}
			if book := c.findBook(books, arg); book != nil {
				if err := c.api.DeleteBook(ctx, c.user.ID, book.ID); err != nil {
					fmt.Println(biblioteca.ErrorMessage(err, "Could not delete the book"))
					continue
				}
				fmt.Println("Book deleted successfully")
				books = c.fetchBooks(ctx, books)
			}
		case "refresh":
			books = c.fetchBooks(ctx, books)
		case "back":
			return actionBack
		case "logout":
			return actionLogout
		case "exit":
			return actionExit
		case "":
		default:
			fmt.Println("Unknown command")
		}
	}
}

// fetchBooks returns a fresh annotated catalog; on failure the previous
// list is kept untouched.
func (c *console) fetchBooks(ctx context.Context, prev []*biblioteca.Book) []*biblioteca.Book {
	books, err := c.api.ListBooksWithAvailability(ctx)
	if err != nil {
		fmt.Println(biblioteca.ErrorMessage(err, "Could not load books"))
		return prev
	}
	return books
}

func (c *console) findBook(books []*biblioteca.Book, arg string) *biblioteca.Book {
	id, err := parseID(arg)
	if err != nil {
		fmt.Println(err)
		return nil
	}
	for _, b := range books {
		if b.ID == id {
			return b
		}
	}
	fmt.Printf("No book with id %d on the list\n", id)
	return nil
}

func bookFields(existing *biblioteca.Book) []ui.Field {
	var title, author, publisher, year, isbn, copies string
	if existing != nil {
		title = existing.Titulo
		author = existing.Autor
		if existing.Editorial != nil {
			publisher = *existing.Editorial
		}
		if existing.AnioPublicacion != nil {
			year = strconv.Itoa(*existing.AnioPublicacion)
		}
		isbn = existing.ISBN
		copies = strconv.Itoa(existing.CantidadDisponible)
	}
	return []ui.Field{
		{Label: "Title", Default: title, Validate: ui.NonEmpty("title")},
		{Label: "Author", Default: author, Validate: ui.NonEmpty("author")},
		{Label: "Publisher", Default: publisher, Optional: true},
		{Label: "Publication year", Default: year, Optional: true, Validate: ui.YearRange(1000, time.Now().Year(), "publication year")},
		{Label: "ISBN (13 digits)", Default: isbn, Transform: ui.DigitsOnly, Validate: ui.ExactDigits(13, "ISBN")},
		{Label: "Copies", Default: copies, Validate: ui.NonNegativeInt("copies")},
	}
}

func bookInputFromValues(values []string) biblioteca.BookInput {
	in := biblioteca.BookInput{
		Titulo:    values[0],
		Autor:     values[1],
		Editorial: optString(values[2]),
		ISBN:      values[4],
	}
	if values[3] != "" {
		if year, err := strconv.Atoi(values[3]); err == nil {
			in.AnioPublicacion = &year
		}
	}
	in.CantidadDisponible, _ = strconv.Atoi(values[5])
	return in
}

func (c *console) addBook(ctx context.Context) bool {
	fmt.Println("\n-- New book --")
	values, err := c.form().Fill(bookFields(nil))
	if err != nil {
		fmt.Println("Canceled")
		return false
	}
	if _, err := c.api.CreateBook(ctx, c.user.ID, bookInputFromValues(values)); err != nil {
		fmt.Println(biblioteca.ErrorMessage(err, "Could not save the book"))
		return false
	}
	fmt.Println("Book created successfully")
	return true
}

func (c *console) editBook(ctx context.Context, book *biblioteca.Book) bool {
	// Live check: the copy count may not drop below active loans.
	activeLoans, err := c.api.GetBookActiveLoans(ctx, book.ID)
	if err != nil {
		fmt.Println(biblioteca.ErrorMessage(err, "Could not verify active loans"))
		return false
	}

	fmt.Printf("\n-- Edit book %d (press Enter to keep a value) --\n", book.ID)
	values, err := c.form().Fill(bookFields(book))
	if err != nil {
		fmt.Println("Canceled")
		return false
	}
	in := bookInputFromValues(values)
	if err := biblioteca.CheckCopies(in.CantidadDisponible, len(activeLoans)); err != nil {
		fmt.Println(err)
		return false
	}
	if _, err := c.api.UpdateBook(ctx, c.user.ID, book.ID, in); err != nil {
		fmt.Println(biblioteca.ErrorMessage(err, "Could not update the book"))
		return false
	}
	fmt.Println("Book updated successfully")
	return true
}

func printBookDetail(b *biblioteca.Book) {
	fmt.Printf("\nBook %d\n", b.ID)
	fmt.Printf("  Title:      %s\n", b.Titulo)
	fmt.Printf("  Author:     %s\n", b.Autor)
	if b.Editorial != nil && *b.Editorial != "" {
		fmt.Printf("  Publisher:  %s\n", *b.Editorial)
	}
	if b.AnioPublicacion != nil {
		fmt.Printf("  Published:  %d\n", *b.AnioPublicacion)
	}
	fmt.Printf("  ISBN:       %s\n", b.ISBN)
	fmt.Printf("  Copies:     %d (%d on loan, %d really available)\n",
		b.CantidadDisponible, b.PrestamosActivos, b.DisponibilidadReal)
	if !b.FechaCreacion.IsZero() {
		fmt.Printf("  Registered: %s\n", b.FechaCreacion.Format(dateLayout))
	}
}

// ---------------------------------------------------------------------------
// Clientes
// ---------------------------------------------------------------------------

func clienteColumns() []ui.Column[*biblioteca.Cliente] {
	return []ui.Column[*biblioteca.Cliente]{
		{Header: "ID", Width: 5, Value: func(cl *biblioteca.Cliente) string { return strconv.FormatInt(cl.ID, 10) }},
		{Header: "Name", Width: 30, Value: func(cl *biblioteca.Cliente) string { return cl.FullName() }},
		{Header: "Email", Width: 28, Value: func(cl *biblioteca.Cliente) string { return cl.Correo }},
		{Header: "Identification", Width: 15, Value: func(cl *biblioteca.Cliente) string { return cl.NumeroIdentificacion }},
	}
}

func (c *console) handleClientes() action {
	ctx := context.Background()
	clientes := c.fetchClientes(ctx, nil)
	table := ui.NewTable(clienteColumns())

	for {
		fmt.Println("\n== Patrons ==")
		table.Render(os.Stdout, clientes, "No patrons registered")
		if c.canManageInventory() {
			fmt.Println("\nCommands: n, p, view <id>, add, edit <id>, del <id>, refresh, back, logout, exit")
		} else {
			fmt.Println("\nCommands: n, p, view <id>, refresh, back, logout, exit")
		}
		fmt.Print("[patrons] > ")
		if !c.sc.Scan() {
			return actionExit
		}
		cmd, arg := splitCommand(c.sc.Text())

		switch cmd {
		case "n":
			if !table.Pager.Next() {
				fmt.Println("Already on the last page")
			}
		case "p":
			if !table.Pager.Prev() {
				fmt.Println("Already on the first page")
			}
		case "view":
			if cliente := c.findCliente(clientes, arg); cliente != nil {
				printClienteDetail(cliente)
			}
		case "add":
			if !c.canManageInventory() {
				fmt.Println("Your role cannot modify patrons")
				continue
			}
			if c.saveCliente(ctx, nil) {
				clientes = c.fetchClientes(ctx, clientes)
			}
		case "edit":
			if !c.canManageInventory() {
				fmt.Println("Your role cannot modify patrons")
				continue
			}
			if cliente := c.findCliente(clientes, arg); cliente != nil && c.saveCliente(ctx, cliente) {
				clientes = c.fetchClientes(ctx, clientes)
			}
		case "del":
			if !c.canManageInventory() {
				fmt.Println("Your role cannot modify patrons")
				continue
			}
			if cliente := c.findCliente(clientes, arg); cliente != nil {
				if err := c.api.DeleteCliente(ctx, c.user.ID, cliente.ID); err != nil {
					fmt.Println(biblioteca.ErrorMessage(err, "Could not delete the patron"))
					continue
				}
				fmt.Println("Patron deleted successfully")
				clientes = c.fetchClientes(ctx, clientes)
			}
		case "refresh":
			clientes = c.fetchClientes(ctx, clientes)
		case "back":
			return actionBack
		case "logout":
			return actionLogout
		case "exit":
			return actionExit
		case "":
		default:
			fmt.Println("Unknown command")
		}
	}
}

func (c *console) fetchClientes(ctx context.Context, prev []*biblioteca.Cliente) []*biblioteca.Cliente {
	clientes, err := c.api.ListClientes(ctx)
	if err != nil {
		fmt.Println(biblioteca.ErrorMessage(err, "Could not load patrons"))
		return prev
	}
	return clientes
}

func (c *console) findCliente(clientes []*biblioteca.Cliente, arg string) *biblioteca.Cliente {
	id, err := parseID(arg)
	if err != nil {
		fmt.Println(err)
		return nil
	}
	for _, cl := range clientes {
		if cl.ID == id {
			return cl
		}
	}
	fmt.Printf("No patron with id %d on the list\n", id)
	return nil
}

func clienteFields(existing *biblioteca.Cliente) []ui.Field {
	var nombre, apellido, correo, telefono, ident string
	if existing != nil {
		nombre = existing.Nombre
		if existing.Apellido != nil {
			apellido = *existing.Apellido
		}
		correo = existing.Correo
		if existing.Telefono != nil {
			telefono = *existing.Telefono
		}
		ident = existing.NumeroIdentificacion
	}
	return []ui.Field{
		{Label: "First name", Default: nombre, Validate: ui.NonEmpty("name")},
		{Label: "Last name", Default: apellido, Optional: true},
		{Label: "Email", Default: correo, Validate: ui.Email("email")},
		{Label: "Phone", Default: telefono, Optional: true},
		{Label: "Identification number (13 digits)", Default: ident, Transform: ui.DigitsOnly, Validate: ui.ExactDigits(13, "identification number")},
	}
}

// saveCliente runs the patron form and creates or updates accordingly.
func (c *console) saveCliente(ctx context.Context, existing *biblioteca.Cliente) bool {
	if existing == nil {
		fmt.Println("\n-- New patron --")
	} else {
		fmt.Printf("\n-- Edit patron %d (press Enter to keep a value) --\n", existing.ID)
	}
	values, err := c.form().Fill(clienteFields(existing))
	if err != nil {
		fmt.Println("Canceled")
		return false
	}
	in := biblioteca.ClienteInput{
		Nombre:               values[0],
		Apellido:             optString(values[1]),
		Correo:               values[2],
		Telefono:             optString(values[3]),
		NumeroIdentificacion: values[4],
	}

	if existing == nil {
		if _, err := c.api.CreateCliente(ctx, c.user.ID, in); err != nil {
			fmt.Println(biblioteca.ErrorMessage(err, "Could not save the patron"))
			return false
		}
		fmt.Println("Patron created successfully")
		return true
	}
	if _, err := c.api.UpdateCliente(ctx, c.user.ID, existing.ID, in); err != nil {
		fmt.Println(biblioteca.ErrorMessage(err, "Could not update the patron"))
		return false
	}
	fmt.Println("Patron updated successfully")
	return true
}

func printClienteDetail(cl *biblioteca.Cliente) {
	fmt.Printf("\nPatron %d\n", cl.ID)
	fmt.Printf("  Name:           %s\n", cl.FullName())
	fmt.Printf("  Email:          %s\n", cl.Correo)
	if cl.Telefono != nil && *cl.Telefono != "" {
		fmt.Printf("  Phone:          %s\n", *cl.Telefono)
	}
	fmt.Printf("  Identification: %s\n", cl.NumeroIdentificacion)
	if !cl.FechaCreacion.IsZero() {
		fmt.Printf("  Registered:     %s\n", cl.FechaCreacion.Format(dateLayout))
	}
}

// ---------------------------------------------------------------------------
// Loans
// ---------------------------------------------------------------------------

func loanColumns() []ui.Column[*biblioteca.Loan] {
	return []ui.Column[*biblioteca.Loan]{
		{Header: "ID", Width: 5, Value: func(l *biblioteca.Loan) string { return strconv.FormatInt(l.ID, 10) }},
		{Header: "Book", Width: 28, Value: func(l *biblioteca.Loan) string {
			if l.Libro == nil {
				return "(deleted book)"
			}
			return l.Libro.Titulo
		}},
		{Header: "Patron", Width: 24, Value: func(l *biblioteca.Loan) string {
			if l.Cliente == nil {
				return "(deleted patron)"
			}
			return l.Cliente.FullName()
		}},
		{Header: "Loaned", Width: 10, Value: func(l *biblioteca.Loan) string { return l.FechaPrestamo.Format(dateLayout) }},
		{Header: "Due", Width: 10, Value: func(l *biblioteca.Loan) string { return l.FechaDevolucionEsp.Format(dateLayout) }},
		{Header: "Status", Width: 14, Value: loanStatus},
	}
}

// loanStatus shows the server's estado, flagging active loans already past
// their expected date. Display only; the server owns the status.
func loanStatus(l *biblioteca.Loan) string {
	if l.Estado == biblioteca.EstadoActivo && time.Now().After(l.FechaDevolucionEsp) {
		return l.Estado + " (late)"
	}
	return l.Estado
}

func (c *console) handleLoans() action {
	ctx := context.Background()
	estado := biblioteca.EstadoActivo
	loans := c.fetchLoans(ctx, estado, nil)
	table := ui.NewTable(loanColumns())

	for {
		if estado == biblioteca.EstadoActivo {
			fmt.Println("\n== Loans (active) ==")
		} else {
			fmt.Println("\n== Loans (returned) ==")
		}
		table.Render(os.Stdout, loans, "No loans registered")
		help := "\nCommands: n, p, view <id>, active, returned"
		if c.canManageInventory() {
			help += ", add"
			if estado == biblioteca.EstadoActivo {
				help += ", return <id>"
			}
		}
		if c.isAdmin() {
			help += ", report"
		}
		fmt.Println(help + ", refresh, back, logout, exit")
		fmt.Print("[loans] > ")
		if !c.sc.Scan() {
			return actionExit
		}
		cmd, arg := splitCommand(c.sc.Text())

		switch cmd {
		case "n":
			if !table.Pager.Next() {
				fmt.Println("Already on the last page")
			}
		case "p":
			if !table.Pager.Prev() {
				fmt.Println("Already on the first page")
			}
		case "active":
			estado = biblioteca.EstadoActivo
			loans = c.fetchLoans(ctx, estado, loans)
			table.Pager.Reset()
		case "returned":
			estado = biblioteca.EstadoDevuelto
			loans = c.fetchLoans(ctx, estado, loans)
			table.Pager.Reset()
		case "view":
			if loan := c.findLoan(loans, arg); loan != nil {
				printLoanDetail(loan)
			}
		case "add":
			if !c.canManageInventory() {
				fmt.Println("Your role cannot register loans")
				continue
			}
			if c.addLoan(ctx) {
				loans = c.fetchLoans(ctx, estado, loans)
			}
		case "return":
			if !c.canManageInventory() {
				fmt.Println("Your role cannot register returns")
				continue
			}
			if estado != biblioteca.EstadoActivo {
				fmt.Println("Returns apply to active loans; switch with 'active'")
				continue
			}
			if loan := c.findLoan(loans, arg); loan != nil {
				if _, err := c.api.ReturnLoan(ctx, c.user.ID, loan.ID); err != nil {
					fmt.Println(biblioteca.ErrorMessage(err, "Could not register the return"))
					continue
				}
				fmt.Println("Return registered successfully")
				loans = c.fetchLoans(ctx, estado, loans)
			}
		case "report":
			if !c.isAdmin() {
				fmt.Println("Reports are available to administrators only")
				continue
			}
			if res := c.handleReports(ctx); res != actionBack {
				return res
			}
		case "refresh":
			loans = c.fetchLoans(ctx, estado, loans)
		case "back":
			return actionBack
		case "logout":
			return actionLogout
		case "exit":
			return actionExit
		case "":
		default:
			fmt.Println("Unknown command")
		}
	}
}

func (c *console) fetchLoans(ctx context.Context, estado string, prev []*biblioteca.Loan) []*biblioteca.Loan {
	loans, err := c.api.ListLoans(ctx, estado)
	if err != nil {
		fmt.Println(biblioteca.ErrorMessage(err, "Could not load loans"))
		return prev
	}
	return loans
}

func (c *console) findLoan(loans []*biblioteca.Loan, arg string) *biblioteca.Loan {
	id, err := parseID(arg)
	if err != nil {
		fmt.Println(err)
		return nil
	}
	for _, l := range loans {
		if l.ID == id {
			return l
		}
	}
	fmt.Printf("No loan with id %d on the list\n", id)
	return nil
}

func (c *console) addLoan(ctx context.Context) bool {
	books, err := c.api.ListBooksWithAvailability(ctx)
	if err != nil {
		fmt.Println(biblioteca.ErrorMessage(err, "Could not load books"))
		return false
	}
	clientes, err := c.api.ListClientes(ctx)
	if err != nil {
		fmt.Println(biblioteca.ErrorMessage(err, "Could not load patrons"))
		return false
	}
	if len(clientes) == 0 {
		fmt.Println("No patrons registered; register one first")
		return false
	}

	fmt.Println("\n-- New loan --")
	fmt.Println("Books:")
	selectable := make(map[int64]bool, len(books))
	for _, b := range books {
		if b.DisponibilidadReal > 0 {
			selectable[b.ID] = true
			fmt.Printf("  %3d  %s - %s (%d available)\n", b.ID, b.Titulo, b.Autor, b.DisponibilidadReal)
		} else {
			fmt.Printf("  %3d  %s - %s (not available)\n", b.ID, b.Titulo, b.Autor)
		}
	}
	if len(selectable) == 0 {
		fmt.Println("No book has available copies right now")
		return false
	}
	fmt.Println("Patrons:")
	patronIDs := make(map[int64]bool, len(clientes))
	for _, cl := range clientes {
		patronIDs[cl.ID] = true
		fmt.Printf("  %3d  %s - %s\n", cl.ID, cl.FullName(), cl.NumeroIdentificacion)
	}

	now := time.Now()
	minDate := biblioteca.MinReturnDate(now)
	fields := []ui.Field{
		{Label: "Book id", Validate: func(s string) error {
			id, err := parseID(s)
			if err != nil {
				return err
			}
			if !selectable[id] {
				return fmt.Errorf("book %d is not selectable (no real availability)", id)
			}
			return nil
		}},
		{Label: "Patron id", Validate: func(s string) error {
			id, err := parseID(s)
			if err != nil {
				return err
			}
			if !patronIDs[id] {
				return fmt.Errorf("no patron with id %d", id)
			}
			return nil
		}},
		{Label: "Expected return date (YYYY-MM-DD)", Default: biblioteca.DefaultReturnDate(now).Format(dateLayout), Validate: func(s string) error {
			date, err := time.ParseInLocation(dateLayout, s, now.Location())
			if err != nil {
				return fmt.Errorf("date must look like %s", dateLayout)
			}
			if date.Before(minDate) {
				return fmt.Errorf("return date cannot be earlier than %s", minDate.Format(dateLayout))
			}
			return nil
		}},
	}
	values, err := c.form().Fill(fields)
	if err != nil {
		fmt.Println("Canceled")
		return false
	}

	bookID, _ := parseID(values[0])
	clienteID, _ := parseID(values[1])
	returnDate, _ := time.ParseInLocation(dateLayout, values[2], now.Location())
	in := biblioteca.LoanInput{
		LibroID:            bookID,
		ClienteID:          clienteID,
		FechaDevolucionEsp: returnDate,
	}
	if _, err := c.api.CreateLoan(ctx, c.user.ID, in); err != nil {
		fmt.Println(biblioteca.ErrorMessage(err, "Could not register the loan"))
		return false
	}
	fmt.Println("Loan registered successfully")
	return true
}

func printLoanDetail(l *biblioteca.Loan) {
	fmt.Printf("\nLoan %d\n", l.ID)
	if l.Libro != nil {
		fmt.Printf("  Book:          %s - %s\n", l.Libro.Titulo, l.Libro.Autor)
	} else {
		fmt.Printf("  Book:          (deleted book, id %d)\n", l.LibroID)
	}
	if l.Cliente != nil {
		fmt.Printf("  Patron:        %s (%s)\n", l.Cliente.FullName(), l.Cliente.NumeroIdentificacion)
	} else {
		fmt.Printf("  Patron:        (deleted patron, id %d)\n", l.ClienteID)
	}
	if l.Usuario != nil {
		fmt.Printf("  Registered by: %s\n", l.Usuario.Username)
	}
	fmt.Printf("  Loaned:        %s\n", l.FechaPrestamo.Format(dateLayout))
	fmt.Printf("  Due:           %s\n", l.FechaDevolucionEsp.Format(dateLayout))
	if l.FechaDevolucionReal != nil {
		fmt.Printf("  Returned:      %s\n", l.FechaDevolucionReal.Format(dateLayout))
	}
	fmt.Printf("  Status:        %s\n", loanStatus(l))
}

// ---------------------------------------------------------------------------
// Loan reports (admin)
// ---------------------------------------------------------------------------

func reportColumns() []ui.Column[*biblioteca.Loan] {
	cols := loanColumns()
	registered := ui.Column[*biblioteca.Loan]{Header: "Registered by", Width: 15, Value: func(l *biblioteca.Loan) string {
		if l.Usuario == nil {
			return "(deleted user)"
		}
		return l.Usuario.Username
	}}
	// Same layout as the loan table, plus the registering user.
	return append(cols[:3:3], append([]ui.Column[*biblioteca.Loan]{registered}, cols[3:]...)...)
}

func (c *console) handleReports(ctx context.Context) action {
	var loans []*biblioteca.Loan
	searched := false
	table := ui.NewTable(reportColumns())

	for {
		fmt.Println("\n== Loan reports ==")
		if searched {
			table.Render(os.Stdout, loans, "No results for that search")
		} else {
			fmt.Println("Run a search to see report rows")
		}
		fmt.Println("\nCommands: search <term>, n, p, back, logout, exit")
		fmt.Print("[reports] > ")
		if !c.sc.Scan() {
			return actionExit
		}
		cmd, arg := splitCommand(c.sc.Text())

		switch cmd {
		case "search":
			if strings.TrimSpace(arg) == "" {
				fmt.Println("Provide a search term: book title, author, or patron name")
				continue
			}
			result, err := c.api.LoanReport(ctx, c.user.ID, arg)
			if err != nil {
				fmt.Println(biblioteca.ErrorMessage(err, "Could not generate the report"))
				continue
			}
			loans = result
			searched = true
			table.Pager.Reset()
		case "n":
			if !table.Pager.Next() {
				fmt.Println("Already on the last page")
			}
		case "p":
			if !table.Pager.Prev() {
				fmt.Println("Already on the first page")
			}
		case "back":
			return actionBack
		case "logout":
			return actionLogout
		case "exit":
			return actionExit
		case "":
		default:
			fmt.Println("Unknown command")
		}
	}
}

// ---------------------------------------------------------------------------
// Users (admin)
// ---------------------------------------------------------------------------

func (c *console) userColumns() []ui.Column[*biblioteca.User] {
	return []ui.Column[*biblioteca.User]{
		{Header: "ID", Width: 5, Value: func(u *biblioteca.User) string { return strconv.FormatInt(u.ID, 10) }},
		{Header: "Username", Width: 20, Value: func(u *biblioteca.User) string {
			if u.ID == c.user.ID {
				return u.Username + " (you)"
			}
			return u.Username
		}},
		{Header: "Email", Width: 28, Value: func(u *biblioteca.User) string { return u.Email }},
		{Header: "Role", Width: 12, Value: func(u *biblioteca.User) string {
			if name := u.RoleName(); name != "" {
				return name
			}
			return strconv.FormatInt(u.RoleID, 10)
		}},
	}
}

func (c *console) handleUsers() action {
	ctx := context.Background()
	users := c.fetchUsers(ctx, nil)
	roles, err := c.api.ListRoles(ctx)
	if err != nil {
		fmt.Println(biblioteca.ErrorMessage(err, "Could not load roles"))
	}
	table := ui.NewTable(c.userColumns())

	for {
		fmt.Println("\n== System users ==")
		table.Render(os.Stdout, users, "No users registered")
		fmt.Println("\nCommands: n, p, view <id>, add, edit <id>, del <id>, refresh, back, logout, exit")
		fmt.Print("[users] > ")
		if !c.sc.Scan() {
			return actionExit
		}
		cmd, arg := splitCommand(c.sc.Text())

		switch cmd {
		case "n":
			if !table.Pager.Next() {
				fmt.Println("Already on the last page")
			}
		case "p":
			if !table.Pager.Prev() {
				fmt.Println("Already on the first page")
			}
		case "view":
			if user := c.findUser(users, arg); user != nil {
				printUserDetail(user)
			}
		case "add":
			if c.saveUser(ctx, nil, roles) {
				users = c.fetchUsers(ctx, users)
			}
		case "edit":
			user := c.findUser(users, arg)
			if user == nil {
				continue
			}
			if user.ID == c.user.ID {
				fmt.Println("You cannot edit your own account from this table")
				continue
			}
			if c.saveUser(ctx, user, roles) {
				users = c.fetchUsers(ctx, users)
			}
		case "del":
			user := c.findUser(users, arg)
			if user == nil {
				continue
			}
			if user.ID == c.user.ID {
				fmt.Println("You cannot delete your own account")
				continue
			}
			if err := c.api.DeleteUser(ctx, c.user.ID, user.ID); err != nil {
				fmt.Println(biblioteca.ErrorMessage(err, "Could not delete the user"))
				continue
			}
			fmt.Println("User deleted successfully")
			users = c.fetchUsers(ctx, users)
		case "refresh":
			users = c.fetchUsers(ctx, users)
		case "back":
			return actionBack
		case "logout":
			return actionLogout
		case "exit":
			return actionExit
		case "":
		default:
			fmt.Println("Unknown command")
		}
	}
}

func (c *console) fetchUsers(ctx context.Context, prev []*biblioteca.User) []*biblioteca.User {
	users, err := c.api.ListUsers(ctx)
	if err != nil {
		fmt.Println(biblioteca.ErrorMessage(err, "Could not load users"))
		return prev
	}
	return users
}

func (c *console) findUser(users []*biblioteca.User, arg string) *biblioteca.User {
	id, err := parseID(arg)
	if err != nil {
		fmt.Println(err)
		return nil
	}
	for _, u := range users {
		if u.ID == id {
			return u
		}
	}
	fmt.Printf("No user with id %d on the list\n", id)
	return nil
}

func (c *console) saveUser(ctx context.Context, existing *biblioteca.User, roles []*biblioteca.Role) bool {
	if len(roles) == 0 {
		fmt.Println("No roles available; cannot manage users")
		return false
	}
	roleIDs := make(map[int64]bool, len(roles))
	fmt.Println("Roles:")
	for _, r := range roles {
		roleIDs[r.ID] = true
		fmt.Printf("  %3d  %s\n", r.ID, r.Name)
	}

	var username, email, roleID string
	if existing != nil {
		username = existing.Username
		email = existing.Email
		roleID = strconv.FormatInt(existing.RoleID, 10)
		fmt.Printf("\n-- Edit user %d (press Enter to keep a value; empty password keeps the current one) --\n", existing.ID)
	} else {
		fmt.Println("\n-- New user --")
	}

	fields := []ui.Field{
		{Label: "Username", Default: username, Validate: ui.NonEmpty("username")},
		{Label: "Email", Default: email, Validate: ui.Email("email")},
		{Label: "Role id", Default: roleID, Validate: func(s string) error {
			id, err := parseID(s)
			if err != nil {
				return err
			}
			if !roleIDs[id] {
				return fmt.Errorf("no role with id %d", id)
			}
			return nil
		}},
		{Label: "Password", Secret: true, Optional: existing != nil},
	}
	values, err := c.form().Fill(fields)
	if err != nil {
		fmt.Println("Canceled")
		return false
	}

	rid, _ := parseID(values[2])
	in := biblioteca.UserInput{
		Username: values[0],
		Email:    values[1],
		RoleID:   rid,
		Password: values[3],
	}

	if existing == nil {
		if _, err := c.api.CreateUser(ctx, c.user.ID, in); err != nil {
			fmt.Println(biblioteca.ErrorMessage(err, "Could not save the user"))
			return false
		}
		fmt.Println("User created successfully")
		return true
	}
	if _, err := c.api.UpdateUser(ctx, c.user.ID, existing.ID, in); err != nil {
		fmt.Println(biblioteca.ErrorMessage(err, "Could not update the user"))
		return false
	}
	fmt.Println("User updated successfully")
	return true
}

func printUserDetail(u *biblioteca.User) {
	fmt.Printf("\nUser %d\n", u.ID)
	fmt.Printf("  Username: %s\n", u.Username)
	fmt.Printf("  Email:    %s\n", u.Email)
	if name := u.RoleName(); name != "" {
		fmt.Printf("  Role:     %s\n", name)
	} else {
		fmt.Printf("  Role id:  %d\n", u.RoleID)
	}
	if !u.FechaCreacion.IsZero() {
		fmt.Printf("  Created:  %s\n", u.FechaCreacion.Format(dateLayout))
	}
}

// ---------------------------------------------------------------------------
// Non-interactive report export
// ---------------------------------------------------------------------------

func runReport(username, search string) error {
	cfg := config.Load()
	lg := logger.New(cfg.LogLevel, cfg.LogPath())
	defer lg.Sync()
	api := biblioteca.New(cfg.APIBaseURL, cfg.HTTPTimeout, lg)

	password := os.Getenv("BIBLIOTECA_PASSWORD")
	if password == "" {
		var err error
		password, err = readPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}

	ctx := context.Background()
	user, err := api.Login(ctx, username, password)
	if err != nil {
		return errors.New(biblioteca.ErrorMessage(err, "login failed"))
	}
	if user.Role != "admin" {
		return fmt.Errorf("loan reports require the admin role (signed in as %s)", user.Role)
	}

	loans, err := api.LoanReport(ctx, user.ID, search)
	if err != nil {
		return errors.New(biblioteca.ErrorMessage(err, "report request failed"))
	}
	if len(loans) == 0 {
		fmt.Printf("No loans match %q\n", search)
		return nil
	}

	fmt.Printf("%-5s %-28s %-24s %-15s %-10s %-10s %s\n",
		"ID", "Book", "Patron", "Registered by", "Loaned", "Due", "Status")
	fmt.Println(strings.Repeat("-", 110))
	for _, l := range loans {
		book := "(deleted book)"
		if l.Libro != nil {
			book = l.Libro.Titulo
		}
		patron := "(deleted patron)"
		if l.Cliente != nil {
			patron = l.Cliente.FullName()
		}
		registrar := "(deleted user)"
		if l.Usuario != nil {
			registrar = l.Usuario.Username
		}
		fmt.Printf("%-5d %-28s %-24s %-15s %-10s %-10s %s\n",
			l.ID,
			ui.Truncate(book, 28),
			ui.Truncate(patron, 24),
			ui.Truncate(registrar, 15),
			l.FechaPrestamo.Format(dateLayout),
			l.FechaDevolucionEsp.Format(dateLayout),
			l.Estado)
	}
	fmt.Printf("\nTotal: %d loan(s)\n", len(loans))
	return nil
}
