package restapi

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"treasury_dashboard/internal/app/aggregate"
	"treasury_dashboard/internal/app/service"
	"treasury_dashboard/internal/domain/entity"
	"treasury_dashboard/internal/infrastructure/apiclient"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 200
)

// APIErrorResponse is the body of every failed view request.
type APIErrorResponse struct {
	Error       string              `json:"error"`
	Status      int                 `json:"status"`
	FieldErrors map[string][]string `json:"fieldErrors,omitempty"`
}

// ViewHandler serves the aggregated read models.
type ViewHandler struct {
	builder *aggregate.Builder
	org     string
	exports bool
	now     func() time.Time
	logger  *zap.Logger
}

// ViewHandlerOptions configures a ViewHandler.
type ViewHandlerOptions struct {
	OrganizationName string
	// AuditExports enables the audit log CSV download.
	AuditExports bool
	Now          func() time.Time
	Logger       *zap.Logger
}

// NewViewHandler creates a ViewHandler.
func NewViewHandler(b *aggregate.Builder, opts ViewHandlerOptions) *ViewHandler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &ViewHandler{
		builder: b,
		org:     opts.OrganizationName,
		exports: opts.AuditExports,
		now:     opts.Now,
		logger:  opts.Logger.Named("ViewHandler"),
	}
}

// statusFor maps a load error onto the view server's response code. Backend client errors
// keep their status; backend failures become 502.
func statusFor(err error) int {
	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, aggregate.ErrNotFound), errors.Is(err, service.ErrEmptyID):
		return http.StatusNotFound
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	case errors.Is(err, apiclient.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrInvalidAddress):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *ViewHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	resp := APIErrorResponse{Error: err.Error(), Status: status}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		resp.Error = apiErr.Message
		resp.FieldErrors = apiErr.FieldErrors
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("View request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		h.logger.Warn("View request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, resp)
}

// pageFrom reads limit and offset. Missing or invalid values fall back to the first page.
func pageFrom(c *gin.Context) service.Page {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return service.NewPage(limit, offset)
}

func attachment(c *gin.Context, name, contentType string, body []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, body)
}

// Dashboard handles GET /dashboard.
func (h *ViewHandler) Dashboard(c *gin.Context) {
	view, err := h.builder.Dashboard(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if view.Treasury != nil && view.Treasury.OrganizationName == "" {
		view.Treasury.OrganizationName = h.org
	}
	c.JSON(http.StatusOK, view)
}

// DashboardSnapshot handles GET /dashboard/snapshot.json.
func (h *ViewHandler) DashboardSnapshot(c *gin.Context) {
	view, err := h.builder.Dashboard(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := aggregate.WriteJSON(&buf, aggregate.NewSnapshot(view)); err != nil {
		h.fail(c, err)
		return
	}
	attachment(c, aggregate.ExportFileName("dashboard_snapshot", "json", h.now()), "application/json", buf.Bytes())
}

// Transfers handles GET /transfers; format=csv downloads the page.
func (h *ViewHandler) Transfers(c *gin.Context) {
	page := pageFrom(c)
	rows, err := h.builder.Transfers(c.Request.Context(), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	if c.Query("format") == "csv" {
		var buf bytes.Buffer
		if err := aggregate.WriteTransfersCSV(&buf, rows); err != nil {
			h.fail(c, err)
			return
		}
		attachment(c, aggregate.ExportFileName("transfers", "csv", h.now()), "text/csv; charset=utf-8", buf.Bytes())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":    rows,
		"limit":   *page.Limit,
		"offset":  offsetOf(page),
		"hasMore": len(rows) >= *page.Limit,
	})
}

func offsetOf(p service.Page) int {
	if p.Offset == nil {
		return 0
	}
	return *p.Offset
}

// Budgets handles GET /budgets.
func (h *ViewHandler) Budgets(c *gin.Context) {
	summary, err := h.builder.Budgets(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Grant handles GET /grants/:id.
func (h *ViewHandler) Grant(c *gin.Context) {
	view, err := h.builder.Grant(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AuditLogCSV handles GET /audit-log.csv. Filters mirror the backend's query parameters.
func (h *ViewHandler) AuditLogCSV(c *gin.Context) {
	if !h.exports {
		c.AbortWithStatusJSON(http.StatusNotFound, APIErrorResponse{Error: "audit log export is disabled", Status: http.StatusNotFound})
		return
	}
	q := service.AuditLogQuery{
		AdminAddress: c.Query("adminAddress"),
		Action:       c.Query("action"),
		Page:         pageFrom(c),
	}
	if q.Action != "" {
		if _, err := entity.ParseAdminAction(q.Action); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, APIErrorResponse{Error: err.Error(), Status: http.StatusBadRequest})
			return
		}
	}
	for param, dst := range map[string]**time.Time{"from": &q.From, "to": &q.To} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, APIErrorResponse{Error: "invalid " + param + ": expected RFC3339", Status: http.StatusBadRequest})
			return
		}
		*dst = &t
	}

	entries, err := h.builder.AuditLog(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := aggregate.WriteAuditLogCSV(&buf, entries); err != nil {
		h.fail(c, err)
		return
	}
	attachment(c, aggregate.ExportFileName("audit_log", "csv", h.now()), "text/csv; charset=utf-8", buf.Bytes())
}

// Healthz handles GET /healthz.
func (h *ViewHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": h.now().UTC()})
}
