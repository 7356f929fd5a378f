package handlers

import (
	"net/http"
	"testing"

	"bluemedix-system/internal/database/models"
)

func TestCartAddAccumulates(t *testing.T) {
	db := setupTestDB(t)
	tokens := testTokens()
	r := newTestRouter(t, db, tokens)

	franchise := seedFranchise(t, db, "560001")
	product := seedProduct(t, db, "100", 0, 10)
	user := seedUser(t, db, models.RoleUser, nil)
	token := tokenFor(t, tokens, user)

	body := map[string]interface{}{"product_id": product.ID, "franchise_id": franchise.ID, "quantity": 2}
	if w := doJSON(t, r, http.MethodPost, "/api/cart/items", token, body); w.Code != http.StatusCreated {
		t.Fatalf("first add: got %d, body %s", w.Code, w.Body)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/cart/items", token, body); w.Code != http.StatusCreated {
		t.Fatalf("second add: got %d, body %s", w.Code, w.Body)
	}

	var items []models.CartItem
	db.Where("user_id = ?", user.ID).Find(&items)
	if len(items) != 1 {
		t.Fatalf("cart rows = %d, want 1", len(items))
	}
	if items[0].Quantity != 4 {
		t.Errorf("quantity = %d, want 4", items[0].Quantity)
	}
}

func TestCheckoutCreatesOrdersAndClearsCart(t *testing.T) {
	db := setupTestDB(t)
	tokens := testTokens()
	r := newTestRouter(t, db, tokens)

	franchise := seedFranchise(t, db, "560001")
	productA := seedProduct(t, db, "100", 0, 10)
	productB := seedProduct(t, db, "50", 0, 10)
	user := seedUser(t, db, models.RoleUser, nil)
	address := seedAddress(t, db, user.ID, "560001")
	token := tokenFor(t, tokens, user)

	doJSON(t, r, http.MethodPost, "/api/cart/items", token,
		map[string]interface{}{"product_id": productA.ID, "franchise_id": franchise.ID, "quantity": 2})
	doJSON(t, r, http.MethodPost, "/api/cart/items", token,
		map[string]interface{}{"product_id": productB.ID, "franchise_id": franchise.ID, "quantity": 1})

	w := doJSON(t, r, http.MethodPost, "/api/cart/checkout", token,
		map[string]interface{}{"deliveryAddress": address.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout: got %d, body %s", w.Code, w.Body)
	}

	// One order per cart row.
	var orderCount int64
	db.Model(&models.Order{}).Where("user_id = ?", user.ID).Count(&orderCount)
	if orderCount != 2 {
		t.Errorf("orders = %d, want 2", orderCount)
	}

	// Cart cleared.
	var cartCount int64
	db.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&cartCount)
	if cartCount != 0 {
		t.Errorf("cart rows after checkout = %d, want 0", cartCount)
	}

	// Stock decremented per line.
	if got := reloadProduct(t, db, productA.ID).WarehouseStock; got != 8 {
		t.Errorf("product A stock = %d, want 8", got)
	}
	if got := reloadProduct(t, db, productB.ID).WarehouseStock; got != 9 {
		t.Errorf("product B stock = %d, want 9", got)
	}
}

func TestCheckoutRollsBackWhenAnyLineOversells(t *testing.T) {
	db := setupTestDB(t)
	tokens := testTokens()
	r := newTestRouter(t, db, tokens)

	franchise := seedFranchise(t, db, "560001")
	plentiful := seedProduct(t, db, "100", 0, 10)
	scarce := seedProduct(t, db, "50", 0, 1)
	user := seedUser(t, db, models.RoleUser, nil)
	address := seedAddress(t, db, user.ID, "560001")
	token := tokenFor(t, tokens, user)

	doJSON(t, r, http.MethodPost, "/api/cart/items", token,
		map[string]interface{}{"product_id": plentiful.ID, "franchise_id": franchise.ID, "quantity": 2})
	doJSON(t, r, http.MethodPost, "/api/cart/items", token,
		map[string]interface{}{"product_id": scarce.ID, "franchise_id": franchise.ID, "quantity": 5})

	w := doJSON(t, r, http.MethodPost, "/api/cart/checkout", token,
		map[string]interface{}{"deliveryAddress": address.ID})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("oversold checkout: got %d, want 400, body %s", w.Code, w.Body)
	}

	// Nothing committed: no orders, cart intact, stock untouched.
	var orderCount int64
	db.Model(&models.Order{}).Where("user_id = ?", user.ID).Count(&orderCount)
	if orderCount != 0 {
		t.Errorf("orders after failed checkout = %d, want 0", orderCount)
	}

	var cartCount int64
	db.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&cartCount)
	if cartCount != 2 {
		t.Errorf("cart rows after failed checkout = %d, want 2", cartCount)
	}

	if got := reloadProduct(t, db, plentiful.ID).WarehouseStock; got != 10 {
		t.Errorf("plentiful stock = %d, want 10", got)
	}
	if got := reloadProduct(t, db, scarce.ID).WarehouseStock; got != 1 {
		t.Errorf("scarce stock = %d, want 1", got)
	}
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	db := setupTestDB(t)
	tokens := testTokens()
	r := newTestRouter(t, db, tokens)

	user := seedUser(t, db, models.RoleUser, nil)
	address := seedAddress(t, db, user.ID, "560001")

	w := doJSON(t, r, http.MethodPost, "/api/cart/checkout", tokenFor(t, tokens, user),
		map[string]interface{}{"deliveryAddress": address.ID})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty cart checkout: got %d, want 400, body %s", w.Code, w.Body)
	}
}
