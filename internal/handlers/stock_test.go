package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"bluemedix-system/internal/database/models"
)

func stockPath(franchiseID, productID int64) string {
	return fmt.Sprintf("/api/franchise-stock/franchise/%d/product/%d", franchiseID, productID)
}

func TestMutateAddCreatesRow(t *testing.T) {
	db := setupTestDB(t)
	tokens := testTokens()
	r := newTestRouter(t, db, tokens)

	franchise := seedFranchise(t, db, "560001")
	product := seedProduct(t, db, "100", 0, 50)
	admin := seedUser(t, db, models.RoleAdmin, nil)

	w := doJSON(t, r, http.MethodPut, stockPath(franchise.ID, product.ID), tokenFor(t, tokens, admin),
		map[string]interface{}{"quantity": 20, "isAddition": true})
	if w.Code != http.StatusOK {
		t.Fatalf("add: got %d, body %s", w.Code, w.Body)
	}

	var stock models.FranchiseStock
	if err := db.Where("franchise_id = ? AND product_id = ?", franchise.ID, product.ID).First(&stock).Error; err != nil {
		t.Fatalf("stock row not created: %v", err)
	}
	if stock.Quantity != 20 {
		t.Errorf("quantity = %d, want 20", stock.Quantity)
	}

	var movements int64
	db.Model(&models.StockMovement{}).Where("franchise_id = ?", franchise.ID).Count(&movements)
	if movements != 1 {
		t.Errorf("movement rows = %d, want 1", movements)
	}
}

func TestMutateAddAccumulates(t *testing.T) {
	db := setupTestDB(t)
	tokens := testTokens()
	r := newTestRouter(t, db, tokens)

	franchise := seedFranchise(t, db, "560001")
	product := seedProduct(t, db, "100", 0, 50)
	admin := seedUser(t, db, models.RoleAdmin, nil)
	token := tokenFor(t, tokens, admin)

	for _, q := range []int32{10, 15} {
		w := doJSON(t, r, http.MethodPut, stockPath(franchise.ID, product.ID), token,
			map[string]interface{}{"quantity": q, "isAddition": true})
		if w.Code != http.StatusOK {
			t.Fatalf("add %d: got %d, body %s", q, w.Code, w.Body)
		}
	}

	var stock models.FranchiseStock
	db.Where("franchise_id = ? AND product_id = ?", franchise.ID, product.ID).First(&stock)
	if stock.Quantity != 25 {
		t.Errorf("quantity = %d, want 25", stock.Quantity)
	}
}

func TestMutateSubtract(t *testing.T) {
	db := setupTestDB(t)
	tokens := testTokens()
	r := newTestRouter(t, db, tokens)

	franchise := seedFranchise(t, db, "560001")
	product := seedProduct(t, db, "100", 0, 50)
	admin := seedUser(t, db, models.RoleAdmin, nil)
	token := tokenFor(t, tokens, admin)

	doJSON(t, r, http.MethodPut, stockPath(franchise.ID, product.ID), token,
		map[string]interface{}{"quantity": 30, "isAddition": true})

	w := doJSON(t, r, http.MethodPut, stockPath(franchise.ID, product.ID), token,
		map[string]interface{}{"quantity": 12, "isAddition": false})
	if w.Code != http.StatusOK {
		t.Fatalf("subtract: got %d, body %s", w.Code, w.Body)
	}

	var stock models.FranchiseStock
	db.Where("franchise_id = ? AND product_id = ?", franchise.ID, product.ID).First(&stock)
	if stock.Quantity != 18 {
		t.Errorf("quantity = %d, want 18", stock.Quantity)
	}
}

func TestMutateSubtractInsufficientRejectedNoPartialEffect(t *testing.T) {
	db := setupTestDB(t)
	tokens := testTokens()
	r := newTestRouter(t, db, tokens)

	franchise := seedFranchise(t, db, "560001")
	product := seedProduct(t, db, "100", 0, 50)
	admin := seedUser(t, db, models.RoleAdmin, nil)
	token := tokenFor(t, tokens, admin)

	doJSON(t, r, http.MethodPut, stockPath(franchise.ID, product.ID), token,
		map[string]interface{}{"quantity": 5, "isAddition": true})

	w := doJSON(t, r, http.MethodPut, stockPath(franchise.ID, product.ID), token,
		map[string]interface{}{"quantity": 6, "isAddition": false})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("oversubtract: got %d, want 400, body %s", w.Code, w.Body)
	}

	var stock models.FranchiseStock
	db.Where("franchise_id = ? AND product_id = ?", franchise.ID, product.ID).First(&stock)
	if stock.Quantity != 5 {
		t.Errorf("quantity changed on rejected subtract: %d, want 5", stock.Quantity)
	}

	var movements int64
	db.Model(&models.StockMovement{}).
		Where("franchise_id = ? AND movement = ?", franchise.ID, models.MovementSubtraction).
		Count(&movements)
	if movements != 0 {
		t.Errorf("rejected subtract wrote %d movement rows", movements)
	}
}

func TestMutateSubtractFromNonexistentRejected(t *testing.T) {
	db := setupTestDB(t)
	tokens := testTokens()
	r := newTestRouter(t, db, tokens)

	franchise := seedFranchise(t, db, "560001")
	product := seedProduct(t, db, "100", 0, 50)
	admin := seedUser(t, db, models.RoleAdmin, nil)

	w := doJSON(t, r, http.MethodPut, stockPath(franchise.ID, product.ID), tokenFor(t, tokens, admin),
		map[string]interface{}{"quantity": 1, "isAddition": false})
	if w.Code != http.StatusBadRequest {
		t.Errorf("subtract from nonexistent: got %d, want 400, body %s", w.Code, w.Body)
	}
}

func TestMutateUnknownFranchise404(t *testing.T) {
	db := setupTestDB(t)
	tokens := testTokens()
	r := newTestRouter(t, db, tokens)

	product := seedProduct(t, db, "100", 0, 50)
	admin := seedUser(t, db, models.RoleAdmin, nil)

	w := doJSON(t, r, http.MethodPut, stockPath(9999, product.ID), tokenFor(t, tokens, admin),
		map[string]interface{}{"quantity": 1, "isAddition": true})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown franchise: got %d, want 404, body %s", w.Code, w.Body)
	}
}

func TestMutateManagerScope(t *testing.T) {
	db := setupTestDB(t)
	tokens := testTokens()
	r := newTestRouter(t, db, tokens)

	franchiseA := seedFranchise(t, db, "560001")
	franchiseB := seedFranchise(t, db, "110001")
	product := seedProduct(t, db, "100", 0, 50)
	manager := seedUser(t, db, models.RoleOrderManager, &franchiseA.ID)
	token := tokenFor(t, tokens, manager)

	// Own franchise: allowed.
	w := doJSON(t, r, http.MethodPut, stockPath(franchiseA.ID, product.ID), token,
		map[string]interface{}{"quantity": 3, "isAddition": true})
	if w.Code != http.StatusOK {
		t.Fatalf("manager on own franchise: got %d, body %s", w.Code, w.Body)
	}

	// Another franchise: forbidden.
	w = doJSON(t, r, http.MethodPut, stockPath(franchiseB.ID, product.ID), token,
		map[string]interface{}{"quantity": 3, "isAddition": true})
	if w.Code != http.StatusForbidden {
		t.Errorf("manager on other franchise: got %d, want 403, body %s", w.Code, w.Body)
	}

	// Plain user: blocked by the role gate.
	user := seedUser(t, db, models.RoleUser, nil)
	w = doJSON(t, r, http.MethodPut, stockPath(franchiseA.ID, product.ID), tokenFor(t, tokens, user),
		map[string]interface{}{"quantity": 3, "isAddition": true})
	if w.Code != http.StatusForbidden {
		t.Errorf("plain user: got %d, want 403", w.Code)
	}
}

func TestStockByFranchiseScope(t *testing.T) {
	db := setupTestDB(t)
	tokens := testTokens()
	r := newTestRouter(t, db, tokens)

	franchiseA := seedFranchise(t, db, "560001")
	franchiseB := seedFranchise(t, db, "110001")
	manager := seedUser(t, db, models.RoleOrderManager, &franchiseA.ID)
	token := tokenFor(t, tokens, manager)

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/franchise-stock/franchise/%d", franchiseA.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Errorf("manager reads own stock: got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/franchise-stock/franchise/%d", franchiseB.ID), token, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("manager reads other stock: got %d, want 403", w.Code)
	}
}
