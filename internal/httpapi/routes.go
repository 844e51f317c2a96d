package httpapi

import "github.com/labstack/echo/v4"

// RegisterRecordRoutes registers the record and invoke routes.
func RegisterRecordRoutes(e *echo.Echo, h *RecordHandler) {
	records := e.Group("/api/v1/records")
	{
		records.POST("", h.Create)                 // POST /api/v1/records
		records.GET("/:id", h.Read)                // GET /api/v1/records/LOTE-001
		records.HEAD("/:id", h.Exists)             // HEAD /api/v1/records/LOTE-001
		records.PUT("/:id", h.Update)              // PUT /api/v1/records/LOTE-001
		records.DELETE("/:id", h.Delete)           // DELETE /api/v1/records/LOTE-001
		records.POST("/:id/inputs", h.AttachInput) // POST /api/v1/records/LOTE-001/inputs
		records.GET("/:id/history", h.History)     // GET /api/v1/records/LOTE-001/history
		records.GET("/:id/verify", h.Verify)       // GET /api/v1/records/LOTE-001/verify
		records.POST("/:id/repair", h.Repair)      // POST /api/v1/records/LOTE-001/repair
	}

	invoke := e.Group("/api/v1/invoke")
	{
		invoke.GET("", h.Functions)         // GET /api/v1/invoke
		invoke.POST("/:function", h.Invoke) // POST /api/v1/invoke/read
	}
}
