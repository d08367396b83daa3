package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ormperfapi/models"
	"ormperfapi/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gotest.tools/assert"
)

const updateProductSQL = `UPDATE "products" SET "category_id"=\$1,"name"=\$2,"price"=\$3,"row_version"=\$4,"status"=\$5 WHERE id = \$6 AND row_version = \$7`

func TestGetProducts(t *testing.T) {
	api, dbMock, _ := newTestAPI(t)
	now := time.Now()
	var genericResp models.GenericResponse

	// err select (500)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	dbMock.ExpectQuery(`SELECT \* FROM "products"`).WillReturnError(fmt.Errorf("err-select"))

	req, _ := http.NewRequest("GET", "", nil)
	c.Request = req
	api.GetProducts(c)

	err := json.NewDecoder(w.Body).Decode(&genericResp)
	assert.Equal(t, nil, err)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, true, strings.Contains(genericResp.Message, "err-select"))

	// invalid filter (400)
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)

	req, _ = http.NewRequest("GET", "?price_above=cheap", nil)
	c.Request = req
	api.GetProducts(c)

	err = json.NewDecoder(w.Body).Decode(&genericResp)
	assert.Equal(t, nil, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid-price-above", genericResp.Message)

	// 200
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)

	dbMock.ExpectQuery(`SELECT \* FROM "products" WHERE products.price > \$1 ORDER BY products.id`).
		WithArgs("500").
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(1, "Laptop", "1200.00", "Active", []byte("v1"), now, 1))
	dbMock.ExpectQuery(`SELECT \* FROM "categories" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Electronics"))

	req, _ = http.NewRequest("GET", "?price_above=500", nil)
	c.Request = req
	api.GetProducts(c)

	var products []models.Product
	err = json.NewDecoder(w.Body).Decode(&products)
	assert.Equal(t, nil, err)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, len(products))
	assert.Equal(t, "Electronics", products[0].Category.Name)

	// as excel
	// products not found (404)
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)

	dbMock.ExpectQuery(`SELECT \* FROM "products"`).WillReturnRows(sqlmock.NewRows(productColumns))

	req, _ = http.NewRequest("GET", "?export_as_excel=true", nil)
	c.Request = req
	api.GetProducts(c)

	err = json.NewDecoder(w.Body).Decode(&genericResp)
	assert.Equal(t, nil, err)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "products-not-found", genericResp.Message)

	// 200
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)

	dbMock.ExpectQuery(`SELECT \* FROM "products"`).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(1, "Laptop", "1200.00", "Active", []byte("v1"), now, 1))
	dbMock.ExpectQuery(`SELECT \* FROM "categories" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Electronics"))

	req, _ = http.NewRequest("GET", "?export_as_excel=true", nil)
	c.Request = req
	api.GetProducts(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Assert(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment;filename=\"report_products_"))
	assert.Assert(t, w.Body.Len() > 0)
	assert.Equal(t, nil, dbMock.ExpectationsWereMet())
}

func TestGetProduct(t *testing.T) {
	api, dbMock, _ := newTestAPI(t)
	var genericResp models.GenericResponse

	// invalid id (400)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	req, _ := http.NewRequest("GET", "", nil)
	c.Request = req
	api.GetProduct(c)

	err := json.NewDecoder(w.Body).Decode(&genericResp)
	assert.Equal(t, nil, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid-id", genericResp.Message)

	// not found (404)
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "4"}}

	dbMock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1`).WillReturnRows(sqlmock.NewRows(productColumns))

	c.Request = req
	api.GetProduct(c)

	err = json.NewDecoder(w.Body).Decode(&genericResp)
	assert.Equal(t, nil, err)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not-found", genericResp.Message)

	// 200
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "4"}}

	dbMock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(4, "Laptop", "1200.00", "Active", []byte("v1"), time.Now(), 1))

	c.Request = req
	api.GetProduct(c)

	var product models.Product
	err = json.NewDecoder(w.Body).Decode(&product)
	assert.Equal(t, nil, err)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, product.ID)
	assert.DeepEqual(t, []byte("v1"), product.RowVersion)
}

func TestCreateProduct(t *testing.T) {
	api, dbMock, _ := newTestAPI(t)
	var genericResp models.GenericResponse

	// nil request (400)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req, _ := http.NewRequest("POST", "", nil)
	c.Request = req
	api.CreateProduct(c)

	err := json.NewDecoder(w.Body).Decode(&genericResp)
	assert.Equal(t, nil, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request", genericResp.Message)

	// name too long (400)
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)

	req, _ = http.NewRequest("POST", "", parsePayload(models.Product{Name: strings.Repeat("x", 101), CategoryID: 1}))
	c.Request = req
	api.CreateProduct(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	// negative price (400)
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)

	req, _ = http.NewRequest("POST", "", parsePayload(models.Product{Name: "Phone", Price: decimal.NewFromInt(-1), CategoryID: 1}))
	c.Request = req
	api.CreateProduct(c)

	err = json.NewDecoder(w.Body).Decode(&genericResp)
	assert.Equal(t, nil, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid-price", genericResp.Message)

	// unknown category (400)
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)

	dbMock.ExpectQuery(`INSERT INTO "products"`).
		WillReturnError(&pq.Error{Code: "23503"})

	req, _ = http.NewRequest("POST", "", parsePayload(models.Product{Name: "Phone", Price: decimal.NewFromInt(300), CategoryID: 9}))
	c.Request = req
	api.CreateProduct(c)

	err = json.NewDecoder(w.Body).Decode(&genericResp)
	assert.Equal(t, nil, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid-category-id", genericResp.Message)

	// 201, server owned fields ignored
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)

	dbMock.ExpectQuery(`INSERT INTO "products"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	past := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	req, _ = http.NewRequest("POST", "", parsePayload(models.Product{ID: 99, Name: "Phone", Price: decimal.NewFromInt(300), CategoryID: 1, CreatedAt: past}))
	c.Request = req
	api.CreateProduct(c)

	var product models.Product
	err = json.NewDecoder(w.Body).Decode(&product)
	assert.Equal(t, nil, err)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/api/products/11", w.Header().Get("Location"))
	assert.Equal(t, 11, product.ID)
	assert.Equal(t, models.Active, product.Status)
	assert.Equal(t, 16, len(product.RowVersion))
	assert.Assert(t, product.CreatedAt.After(past))
	assert.Equal(t, nil, dbMock.ExpectationsWereMet())
}

func TestUpdateProduct(t *testing.T) {
	api, dbMock, _ := newTestAPI(t)
	var genericResp models.GenericResponse
	token := []byte("0123456789abcdef")
	product := models.Product{
		ID:         7,
		Name:       "Phone",
		Price:      decimal.RequireFromString("299.99"),
		Status:     models.Inactive,
		CategoryID: 1,
		RowVersion: token,
		CreatedAt:  time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	// invalid id (400)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "x"}}

	req, _ := http.NewRequest("PUT", "", parsePayload(product))
	c.Request = req
	api.UpdateProduct(c)

	err := json.NewDecoder(w.Body).Decode(&genericResp)
	assert.Equal(t, nil, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid-id", genericResp.Message)

	// path and payload disagree (400), store untouched
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "8"}}

	req, _ = http.NewRequest("PUT", "", parsePayload(product))
	c.Request = req
	api.UpdateProduct(c)

	err = json.NewDecoder(w.Body).Decode(&genericResp)
	assert.Equal(t, nil, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "id-mismatch", genericResp.Message)
	assert.Equal(t, nil, dbMock.ExpectationsWereMet())

	// missing row version (400)
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	noToken := product
	noToken.RowVersion = nil
	req, _ = http.NewRequest("PUT", "", parsePayload(noToken))
	c.Request = req
	api.UpdateProduct(c)

	err = json.NewDecoder(w.Body).Decode(&genericResp)
	assert.Equal(t, nil, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing-row-version", genericResp.Message)

	// 204, created_at stays out of the write-set
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	dbMock.ExpectExec(updateProductSQL).
		WithArgs(1, "Phone", "299.99", sqlmock.AnyArg(), "Inactive", 7, token).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req, _ = http.NewRequest("PUT", "", parsePayload(product))
	c.Request = req
	api.UpdateProduct(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, 0, w.Body.Len())
	assert.Equal(t, 0, len(c.Errors))
	assert.Equal(t, nil, dbMock.ExpectationsWereMet())

	// same token again, row still there: conflict is propagated
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	dbMock.ExpectExec(updateProductSQL).
		WithArgs(1, "Phone", "299.99", sqlmock.AnyArg(), "Inactive", 7, token).
		WillReturnResult(sqlmock.NewResult(0, 0))
	dbMock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM products WHERE id = \$1\)`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	req, _ = http.NewRequest("PUT", "", parsePayload(product))
	c.Request = req
	api.UpdateProduct(c)

	assert.Equal(t, false, c.Writer.Written())
	assert.Equal(t, 1, len(c.Errors))
	assert.Assert(t, errors.Is(c.Errors.Last().Err, store.ErrConcurrencyConflict))
	assert.Equal(t, nil, dbMock.ExpectationsWereMet())

	// row deleted in between (404)
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	dbMock.ExpectExec(updateProductSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	dbMock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM products WHERE id = \$1\)`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	req, _ = http.NewRequest("PUT", "", parsePayload(product))
	c.Request = req
	api.UpdateProduct(c)

	err = json.NewDecoder(w.Body).Decode(&genericResp)
	assert.Equal(t, nil, err)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not-found", genericResp.Message)
	assert.Equal(t, 0, len(c.Errors))

	// other fault is propagated
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	dbMock.ExpectExec(updateProductSQL).WillReturnError(fmt.Errorf("err-update"))

	req, _ = http.NewRequest("PUT", "", parsePayload(product))
	c.Request = req
	api.UpdateProduct(c)

	assert.Equal(t, 1, len(c.Errors))
	assert.ErrorContains(t, c.Errors.Last().Err, "err-update")
	assert.Equal(t, nil, dbMock.ExpectationsWereMet())
}

func TestDeleteProduct(t *testing.T) {
	api, dbMock, _ := newTestAPI(t)
	var genericResp models.GenericResponse

	// 404
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	dbMock.ExpectExec(`DELETE FROM "products" WHERE id = \$1`).WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 0))

	req, _ := http.NewRequest("DELETE", "", nil)
	c.Request = req
	api.DeleteProduct(c)

	err := json.NewDecoder(w.Body).Decode(&genericResp)
	assert.Equal(t, nil, err)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not-found", genericResp.Message)

	// 204
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	dbMock.ExpectExec(`DELETE FROM "products" WHERE id = \$1`).WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 1))

	c.Request = req
	api.DeleteProduct(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())

	// still referenced (409), not a server fault
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	dbMock.ExpectExec(`DELETE FROM "products" WHERE id = \$1`).WithArgs(3).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "fk_order_products_product"})

	c.Request = req
	api.DeleteProduct(c)

	err = json.NewDecoder(w.Body).Decode(&genericResp)
	assert.Equal(t, nil, err)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "product-in-use", genericResp.Message)
	assert.Equal(t, 0, len(c.Errors))
	assert.Equal(t, nil, dbMock.ExpectationsWereMet())
}

func TestGetProductSummaries(t *testing.T) {
	api := NewAPI()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req, _ := http.NewRequest("GET", "", nil)
	c.Request = req
	api.GetProductSummaries(c)

	var resp []models.ProductSummary
	err := json.NewDecoder(w.Body).Decode(&resp)
	assert.Equal(t, nil, err)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.DeepEqual(t, []models.ProductSummary{{ID: 1, Name: "Product A"}, {ID: 2, Name: "Product B"}}, resp)
}
