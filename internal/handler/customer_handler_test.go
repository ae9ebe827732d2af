package handler

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/service"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

type customerFixture struct {
	handler      *CustomerHandler
	customerRepo *testutil.MockCustomerRepository
	jobRepo      *testutil.MockJobRepository
	noteRepo     *testutil.MockNoteRepository
}

func newCustomerFixture() *customerFixture {
	customerRepo := testutil.NewMockCustomerRepository()
	jobRepo := testutil.NewMockJobRepository()
	noteRepo := testutil.NewMockNoteRepository()

	customerService := service.NewCustomerService(customerRepo, jobRepo, noteRepo)
	customerService.SetClock(testClock)
	statementService := service.NewStatementService(customerRepo, jobRepo)
	statementService.SetClock(testClock)

	return &customerFixture{
		handler:      NewCustomerHandler(customerService, statementService),
		customerRepo: customerRepo,
		jobRepo:      jobRepo,
		noteRepo:     noteRepo,
	}
}

func (f *customerFixture) addCustomer(id, name, phone string) {
	f.customerRepo.AddCustomer(&domain.Customer{
		ID:          id,
		WorkspaceID: testWorkspaceID,
		Name:        name,
		Phone:       phone,
		CreatedAt:   fixedNow,
		UpdatedAt:   fixedNow,
	})
}

func (f *customerFixture) addJob(id, customerID string, price, paid int64) {
	job := &domain.Job{
		ID:          id,
		WorkspaceID: testWorkspaceID,
		Name:        "İş " + id,
		Price:       decimal.NewFromInt(price),
		CustomerID:  &customerID,
		CreatedAt:   fixedNow,
	}
	if paid > 0 {
		job.Payments = []domain.Payment{
			domain.NewPayment(decimal.NewFromInt(paid), domain.PaymentMethodCash, fixedNow),
		}
	}
	f.jobRepo.AddJob(job)
}

func TestCreateCustomer(t *testing.T) {
	e := newTestEcho()
	f := newCustomerFixture()

	c, rec := newWorkspaceContext(e, http.MethodPost, "/api/v1/customers", jsonBody(`{
		"name": " Ahmet Yılmaz ",
		"phone": "05321234567",
		"address": "  "
	}`))

	if err := f.handler.CreateCustomer(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectStatus(t, rec, http.StatusCreated)

	var customer domain.Customer
	decodeJSON(t, rec, &customer)
	if customer.Name != "Ahmet Yılmaz" {
		t.Errorf("Expected trimmed name, got %q", customer.Name)
	}
	if customer.Phone != "0532 123 45 67" {
		t.Errorf("Expected formatted phone, got %q", customer.Phone)
	}
	if customer.Address != nil {
		t.Errorf("Expected blank address to be dropped, got %q", *customer.Address)
	}
}

func TestCreateCustomer_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantType   string
	}{
		{"missing phone", `{"name": "Mehmet"}`, http.StatusBadRequest, ErrorTypeValidation},
		{"short phone", `{"name": "Mehmet", "phone": "12345"}`, http.StatusBadRequest, ErrorTypeValidation},
		{"duplicate name", `{"name": "ayşe demir", "phone": "05559998877"}`, http.StatusConflict, ErrorTypeConflict},
		{"duplicate phone", `{"name": "Başka", "phone": "0532 111 22 33"}`, http.StatusConflict, ErrorTypeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			f := newCustomerFixture()
			f.addCustomer("c1", "Ayşe Demir", "05321112233")

			c, rec := newWorkspaceContext(e, http.MethodPost, "/api/v1/customers", jsonBody(tt.body))
			if err := f.handler.CreateCustomer(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			expectStatus(t, rec, tt.wantStatus)

			problem := decodeProblem(t, rec)
			if problem.Type != tt.wantType {
				t.Errorf("Expected error type %s, got %s", tt.wantType, problem.Type)
			}
			if len(f.customerRepo.Customers) != 1 {
				t.Errorf("Expected no new customer, got %d", len(f.customerRepo.Customers))
			}
		})
	}
}

func TestUpdateCustomer_SameNameIsNotDuplicate(t *testing.T) {
	e := newTestEcho()
	f := newCustomerFixture()
	f.addCustomer("c1", "Ayşe Demir", "05321112233")

	c, rec := newWorkspaceContext(e, http.MethodPut, "/api/v1/customers/c1", jsonBody(`{
		"name": "Ayşe Demir",
		"phone": "05321112233",
		"notes": "Kapıcıya bırak"
	}`))
	c.SetParamNames("id")
	c.SetParamValues("c1")

	if err := f.handler.UpdateCustomer(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectStatus(t, rec, http.StatusOK)

	var customer domain.Customer
	decodeJSON(t, rec, &customer)
	if customer.Notes == nil || *customer.Notes != "Kapıcıya bırak" {
		t.Errorf("Expected notes to be saved, got %v", customer.Notes)
	}
}

func TestListCustomers_Search(t *testing.T) {
	e := newTestEcho()
	f := newCustomerFixture()
	f.addCustomer("c1", "Ayşe Demir", "0532 111 22 33")
	f.addCustomer("c2", "Mehmet Kaya", "0533 444 55 66")
	f.addJob("j1", "c2", 300, 100)

	c, rec := newWorkspaceContext(e, http.MethodGet, "/api/v1/customers?q=kaya", nil)
	if err := f.handler.ListCustomers(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectStatus(t, rec, http.StatusOK)

	var customers []domain.CustomerWithStats
	decodeJSON(t, rec, &customers)
	if len(customers) != 1 || customers[0].ID != "c2" {
		t.Fatalf("Expected only Mehmet Kaya, got %+v", customers)
	}
	if customers[0].TotalJobs != 1 || customers[0].PendingPayments != 1 {
		t.Errorf("Expected 1 job and 1 pending payment, got %+v", customers[0])
	}
}

func TestTopCustomers(t *testing.T) {
	e := newTestEcho()
	f := newCustomerFixture()
	f.addCustomer("c1", "Ayşe Demir", "0532 111 22 33")
	f.addCustomer("c2", "Mehmet Kaya", "0533 444 55 66")
	f.addJob("j1", "c1", 100, 100)
	f.addJob("j2", "c2", 500, 400)

	t.Run("limit", func(t *testing.T) {
		c, rec := newWorkspaceContext(e, http.MethodGet, "/api/v1/customers/top?limit=1", nil)
		if err := f.handler.TopCustomers(c); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		expectStatus(t, rec, http.StatusOK)

		var customers []domain.CustomerWithStats
		decodeJSON(t, rec, &customers)
		if len(customers) != 1 || customers[0].ID != "c2" {
			t.Errorf("Expected Mehmet Kaya on top, got %+v", customers)
		}
	})

	for _, limit := range []string{"0", "-2", "beş"} {
		t.Run("invalid limit "+limit, func(t *testing.T) {
			c, rec := newWorkspaceContext(e, http.MethodGet, "/api/v1/customers/top?limit="+limit, nil)
			if err := f.handler.TopCustomers(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			expectStatus(t, rec, http.StatusBadRequest)
		})
	}
}

func TestGetCustomer_Detail(t *testing.T) {
	e := newTestEcho()
	f := newCustomerFixture()
	f.addCustomer("c1", "Ayşe Demir", "0532 111 22 33")
	f.addJob("j1", "c1", 250, 100)
	customerID := "c1"
	f.noteRepo.AddNote(&domain.Note{
		ID: "n1", WorkspaceID: testWorkspaceID, Content: "Anahtar komşuda", CustomerID: &customerID,
		Category: domain.NoteCategoryReminder, Status: domain.NoteStatusActive, CreatedAt: fixedNow,
	})

	c, rec := newWorkspaceContext(e, http.MethodGet, "/api/v1/customers/c1", nil)
	c.SetParamNames("id")
	c.SetParamValues("c1")

	if err := f.handler.GetCustomer(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectStatus(t, rec, http.StatusOK)

	var detail CustomerDetailResponse
	decodeJSON(t, rec, &detail)
	if detail.CustomerWithStats == nil || detail.Name != "Ayşe Demir" {
		t.Fatalf("Expected customer in response, got %s", rec.Body.String())
	}
	if !detail.TotalRevenue.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected revenue 100, got %s", detail.TotalRevenue)
	}
	if len(detail.Jobs) != 1 || !detail.Jobs[0].RemainingBalance.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Expected one job with 150 remaining, got %+v", detail.Jobs)
	}
	if len(detail.CustomerNotes) != 1 || detail.CustomerNotes[0].ID != "n1" {
		t.Errorf("Expected the customer's note, got %+v", detail.CustomerNotes)
	}
}

func TestDeleteCustomer(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantJobs  int
		wantNotes int
	}{
		{"keeps related records", "", 1, 1},
		{"cascade", "?cascade=true", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			f := newCustomerFixture()
			f.addCustomer("c1", "Ayşe Demir", "0532 111 22 33")
			f.addJob("j1", "c1", 100, 0)
			customerID := "c1"
			f.noteRepo.AddNote(&domain.Note{
				ID: "n1", WorkspaceID: testWorkspaceID, Content: "Sigorta kutusu", CustomerID: &customerID,
				Category: domain.NoteCategoryGeneral, Status: domain.NoteStatusActive, CreatedAt: fixedNow,
			})

			c, rec := newWorkspaceContext(e, http.MethodDelete, "/api/v1/customers/c1"+tt.query, nil)
			c.SetParamNames("id")
			c.SetParamValues("c1")

			if err := f.handler.DeleteCustomer(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			expectStatus(t, rec, http.StatusOK)

			if _, ok := f.customerRepo.Customers["c1"]; ok {
				t.Error("Expected customer to be deleted")
			}
			if len(f.jobRepo.Jobs) != tt.wantJobs {
				t.Errorf("Expected %d jobs left, got %d", tt.wantJobs, len(f.jobRepo.Jobs))
			}
			if len(f.noteRepo.Notes) != tt.wantNotes {
				t.Errorf("Expected %d notes left, got %d", tt.wantNotes, len(f.noteRepo.Notes))
			}
		})
	}
}

func TestDeleteCustomer_InvalidCascade(t *testing.T) {
	e := newTestEcho()
	f := newCustomerFixture()
	f.addCustomer("c1", "Ayşe Demir", "0532 111 22 33")

	c, rec := newWorkspaceContext(e, http.MethodDelete, "/api/v1/customers/c1?cascade=evet", nil)
	c.SetParamNames("id")
	c.SetParamValues("c1")

	if err := f.handler.DeleteCustomer(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectStatus(t, rec, http.StatusBadRequest)
	if _, ok := f.customerRepo.Customers["c1"]; !ok {
		t.Error("Expected customer to be kept")
	}
}

func TestGetStatementPDF(t *testing.T) {
	e := newTestEcho()
	f := newCustomerFixture()
	f.addCustomer("c1", "Ayşe Demir", "0532 111 22 33")
	f.addJob("j1", "c1", 1250, 500)

	c, rec := newWorkspaceContext(e, http.MethodGet, "/api/v1/customers/c1/statement.pdf", nil)
	c.SetParamNames("id")
	c.SetParamValues("c1")

	if err := f.handler.GetStatementPDF(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectStatus(t, rec, http.StatusOK)

	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Expected application/pdf, got %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="ekstre_c1.pdf"` {
		t.Errorf("Unexpected Content-Disposition %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("Expected a PDF document")
	}
}

func TestGetStatementPDF_UnknownCustomer(t *testing.T) {
	e := newTestEcho()
	f := newCustomerFixture()

	c, rec := newWorkspaceContext(e, http.MethodGet, "/api/v1/customers/missing/statement.pdf", nil)
	c.SetParamNames("id")
	c.SetParamValues("missing")

	if err := f.handler.GetStatementPDF(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectStatus(t, rec, http.StatusNotFound)
}
