//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func seededCustomer(t *testing.T, email string) customerResponse {
	t.Helper()

	resp := doGet(t, "/api/customers/email/"+email)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get customer %s: expected 200, got %d", email, resp.StatusCode)
	}
	return decodeJSON[customerResponse](t, resp)
}

func bookByISBN(t *testing.T, isbn string) bookResponse {
	t.Helper()

	resp := doGet(t, "/api/books/isbn/"+isbn)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get book %s: expected 200, got %d", isbn, resp.StatusCode)
	}
	return decodeJSON[bookResponse](t, resp)
}

func TestOrderLifecycle(t *testing.T) {
	cust := seededCustomer(t, "john.doe@example.com")
	b := bookByISBN(t, "978-0061120084")
	stockBefore := b.StockQuantity

	// Place the order.
	resp := doPostWithAuth(t, "/api/orders", orderRequest{
		CustomerID: cust.ID,
		Items:      []orderItemRequest{{BookID: b.ID, Quantity: 2}},
	}, testAPIKey)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	o := decodeJSON[orderResponse](t, resp)
	if o.Status != "PENDING" {
		t.Fatalf("expected PENDING, got %s", o.Status)
	}
	wantTotal := b.Price * 2
	if o.TotalAmount != wantTotal {
		t.Fatalf("expected total %.2f, got %.2f", wantTotal, o.TotalAmount)
	}
	if o.ShippingAddress != cust.Address {
		t.Fatalf("expected shipping address %q, got %q", cust.Address, o.ShippingAddress)
	}

	// Stock was debited.
	if got := bookByISBN(t, b.ISBN).StockQuantity; got != stockBefore-2 {
		t.Fatalf("expected stock %d after order, got %d", stockBefore-2, got)
	}

	// Walk the lifecycle forward.
	for _, status := range []string{"CONFIRMED", "PROCESSING", "SHIPPED", "DELIVERED"} {
		sresp := doPatchWithAuth(t, "/api/orders/"+o.ID+"/status", statusRequest{Status: status}, testAPIKey)
		if sresp.StatusCode != http.StatusOK {
			t.Fatalf("transition to %s: expected 200, got %d", status, sresp.StatusCode)
		}
		updated := decodeJSON[orderResponse](t, sresp)
		sresp.Body.Close()
		if updated.Status != status {
			t.Fatalf("expected %s, got %s", status, updated.Status)
		}
		switch status {
		case "SHIPPED":
			if updated.ShippedDate == nil {
				t.Fatal("expected shippedDate to be set")
			}
		case "DELIVERED":
			if updated.DeliveredDate == nil {
				t.Fatal("expected deliveredDate to be set")
			}
		}
	}

	// Delivered orders cannot be cancelled; stock stays debited.
	cresp := doDeleteWithAuth(t, "/api/orders/"+o.ID+"/cancel", testAPIKey)
	defer cresp.Body.Close()
	if cresp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 cancelling delivered order, got %d", cresp.StatusCode)
	}
	if got := bookByISBN(t, b.ISBN).StockQuantity; got != stockBefore-2 {
		t.Fatalf("expected stock %d after rejected cancel, got %d", stockBefore-2, got)
	}
}

func TestCancelOrder_RestoresStock(t *testing.T) {
	cust := seededCustomer(t, "jane.smith@example.com")
	b := bookByISBN(t, "978-0141439518")
	stockBefore := b.StockQuantity

	resp := doPostWithAuth(t, "/api/orders", orderRequest{
		CustomerID: cust.ID,
		Items:      []orderItemRequest{{BookID: b.ID, Quantity: 3}},
	}, testAPIKey)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	o := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	if got := bookByISBN(t, b.ISBN).StockQuantity; got != stockBefore-3 {
		t.Fatalf("expected stock %d, got %d", stockBefore-3, got)
	}

	cresp := doDeleteWithAuth(t, "/api/orders/"+o.ID+"/cancel", testAPIKey)
	if cresp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", cresp.StatusCode)
	}
	cancelled := decodeJSON[orderResponse](t, cresp)
	cresp.Body.Close()
	if cancelled.Status != "CANCELLED" {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}

	if got := bookByISBN(t, b.ISBN).StockQuantity; got != stockBefore {
		t.Fatalf("expected stock restored to %d, got %d", stockBefore, got)
	}

	// A second cancel must not double-credit.
	again := doDeleteWithAuth(t, "/api/orders/"+o.ID+"/cancel", testAPIKey)
	defer again.Body.Close()
	if again.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", again.StatusCode)
	}
	if got := bookByISBN(t, b.ISBN).StockQuantity; got != stockBefore {
		t.Fatalf("stock double-credited: expected %d, got %d", stockBefore, got)
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	cust := seededCustomer(t, "bob.johnson@example.com")
	b := bookByISBN(t, "978-0316769174")

	resp := doPostWithAuth(t, "/api/orders", orderRequest{
		CustomerID: cust.ID,
		Items:      []orderItemRequest{{BookID: b.ID, Quantity: b.StockQuantity + 1}},
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	// No partial debit.
	if got := bookByISBN(t, b.ISBN).StockQuantity; got != b.StockQuantity {
		t.Fatalf("expected stock unchanged at %d, got %d", b.StockQuantity, got)
	}
}

func TestCreateOrder_MultiItemAtomicity(t *testing.T) {
	cust := seededCustomer(t, "john.doe@example.com")
	b1 := bookByISBN(t, "978-0451524935")
	b2 := bookByISBN(t, "978-0547928227")

	// Second item exceeds stock; the first item's debit must roll back.
	resp := doPostWithAuth(t, "/api/orders", orderRequest{
		CustomerID: cust.ID,
		Items: []orderItemRequest{
			{BookID: b1.ID, Quantity: 1},
			{BookID: b2.ID, Quantity: b2.StockQuantity + 1},
		},
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if got := bookByISBN(t, b1.ISBN).StockQuantity; got != b1.StockQuantity {
		t.Fatalf("first item debit leaked: expected %d, got %d", b1.StockQuantity, got)
	}
	if got := bookByISBN(t, b2.ISBN).StockQuantity; got != b2.StockQuantity {
		t.Fatalf("second item stock changed: expected %d, got %d", b2.StockQuantity, got)
	}
}

func TestCreateOrder_NoAuth(t *testing.T) {
	resp := doPost(t, "/api/orders", orderRequest{
		CustomerID: "whatever",
		Items:      []orderItemRequest{{BookID: "x", Quantity: 1}},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestListOrdersByCustomer(t *testing.T) {
	cust := seededCustomer(t, "jane.smith@example.com")

	resp := doGet(t, "/api/orders/customer/"+cust.ID)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	orders := decodeJSON[[]orderResponse](t, resp)
	for _, o := range orders {
		if o.CustomerID != cust.ID {
			t.Fatalf("order %s belongs to %s, not %s", o.ID, o.CustomerID, cust.ID)
		}
	}
}
