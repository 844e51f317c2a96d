package httpapi

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/roach88/lotetrace/internal/contract"
	"github.com/roach88/lotetrace/internal/trace"
)

// RecordHandler serves the record routes.
type RecordHandler struct {
	contract *contract.Contract
}

// NewRecordHandler creates a record handler.
func NewRecordHandler(c *contract.Contract) *RecordHandler {
	return &RecordHandler{contract: c}
}

// CreateRequest is the body of POST /api/v1/records.
type CreateRequest struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	ClassificationCode string `json:"classificationCode"`
}

// UpdateRequest is the body of PUT /api/v1/records/:id.
type UpdateRequest struct {
	Name               string `json:"name"`
	ClassificationCode string `json:"classificationCode"`
}

// AttachRequest is the body of POST /api/v1/records/:id/inputs.
type AttachRequest struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	ClassificationCode string `json:"classificationCode"`
}

// InvokeRequest is the body of POST /api/v1/invoke/:function.
type InvokeRequest struct {
	Args []string `json:"args"`
}

// recordID returns the :id path parameter as the client meant it. echo
// matches on the escaped path when the request has one (an id holding "/"
// arrives as %2F), and then leaves the parameter escaped.
func recordID(c echo.Context, op string) (string, error) {
	id := c.Param("id")
	if c.Request().URL.RawPath == "" {
		return id, nil
	}
	unescaped, err := url.PathUnescape(id)
	if err != nil {
		return "", trace.InvalidArgument(op, id, "malformed escape in id")
	}
	return unescaped, nil
}

func bind(c echo.Context, op string, v any) error {
	if err := c.Bind(v); err != nil {
		return trace.InvalidArgument(op, c.Param("id"), "malformed request body")
	}
	return nil
}

// Exists answers HEAD with 200 or 404 and no body.
// HEAD /api/v1/records/:id
func (h *RecordHandler) Exists(c echo.Context) error {
	id, err := recordID(c, contract.FnExists)
	if err != nil {
		return err
	}
	ok, err := h.contract.Exists(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}
	return c.NoContent(http.StatusOK)
}

// Read returns the current record.
// GET /api/v1/records/:id
func (h *RecordHandler) Read(c echo.Context) error {
	id, err := recordID(c, contract.FnRead)
	if err != nil {
		return err
	}
	rec, err := h.contract.Read(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

// Create makes a record.
// POST /api/v1/records
func (h *RecordHandler) Create(c echo.Context) error {
	var req CreateRequest
	if err := bind(c, contract.FnCreate, &req); err != nil {
		return err
	}
	if err := h.contract.Create(c.Request().Context(), req.ID, req.Name, req.ClassificationCode); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]string{"id": req.ID})
}

// Update changes name and classification code.
// PUT /api/v1/records/:id
func (h *RecordHandler) Update(c echo.Context) error {
	id, err := recordID(c, contract.FnUpdate)
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := bind(c, contract.FnUpdate, &req); err != nil {
		return err
	}
	if err := h.contract.Update(c.Request().Context(), id, req.Name, req.ClassificationCode); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes the current record.
// DELETE /api/v1/records/:id
func (h *RecordHandler) Delete(c echo.Context) error {
	id, err := recordID(c, contract.FnDelete)
	if err != nil {
		return err
	}
	if err := h.contract.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AttachInput records the body's lot as an input of :id.
// POST /api/v1/records/:id/inputs
func (h *RecordHandler) AttachInput(c echo.Context) error {
	id, err := recordID(c, contract.FnAttachInput)
	if err != nil {
		return err
	}
	var req AttachRequest
	if err := bind(c, contract.FnAttachInput, &req); err != nil {
		return err
	}
	err = h.contract.AttachInput(c.Request().Context(), id, req.ID, req.Name, req.ClassificationCode)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// History returns every version, oldest first.
// GET /api/v1/records/:id/history
func (h *RecordHandler) History(c echo.Context) error {
	id, err := recordID(c, contract.FnHistory)
	if err != nil {
		return err
	}
	it, err := h.contract.History(c.Request().Context(), id)
	if err != nil {
		return err
	}
	snaps, err := trace.CollectHistory(it)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snaps)
}

// Verify lists one-sided relations.
// GET /api/v1/records/:id/verify
func (h *RecordHandler) Verify(c echo.Context) error {
	id, err := recordID(c, contract.FnVerify)
	if err != nil {
		return err
	}
	incs, err := h.contract.Verify(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, incs)
}

// Repair writes missing back references.
// POST /api/v1/records/:id/repair
func (h *RecordHandler) Repair(c echo.Context) error {
	id, err := recordID(c, contract.FnRepair)
	if err != nil {
		return err
	}
	incs, err := h.contract.Repair(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, incs)
}

// Invoke dispatches by function name.
// POST /api/v1/invoke/:function
func (h *RecordHandler) Invoke(c echo.Context) error {
	var req InvokeRequest
	if err := bind(c, "invoke", &req); err != nil {
		return err
	}
	payload, err := h.contract.Invoke(c.Request().Context(), c.Param("function"), req.Args)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSONBlob(http.StatusOK, payload)
}

// Functions lists invocable names.
// GET /api/v1/invoke
func (h *RecordHandler) Functions(c echo.Context) error {
	out := make(map[string][]string, len(contract.Functions()))
	for _, fn := range contract.Functions() {
		out[fn] = contract.Params(fn)
	}
	return c.JSON(http.StatusOK, out)
}
