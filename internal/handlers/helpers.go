package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"monitoring-portal/internal/resultframework"
)

const dateLayout = "2006-01-02"

// parseDateQuery reads an optional YYYY-MM-DD query parameter.
func parseDateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// parseUintParam reads a numeric path parameter.
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// parseUintQuery parses a numeric query value.
func parseUintQuery(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// timeParse parses a YYYY-MM-DD value.
func timeParse(raw string) (time.Time, error) {
	return time.Parse(dateLayout, raw)
}

// parseLimit reads the limit query parameter with a default.
func parseLimit(c *gin.Context, fallback int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(fallback)))
	if err != nil || limit < 0 {
		return fallback
	}
	return limit
}

// calcOptionsFromQuery assembles the calculation filters shared by the
// calculate and snapshot endpoints (date_from, date_to, location_id).
func calcOptionsFromQuery(c *gin.Context) (resultframework.CalcOptions, bool) {
	var opts resultframework.CalcOptions

	from, ok := parseDateQuery(c, "date_from")
	if !ok {
		return opts, false
	}
	to, ok := parseDateQuery(c, "date_to")
	if !ok {
		return opts, false
	}
	opts.DateFrom = from
	opts.DateTo = to

	if raw := c.Query("location_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return opts, false
		}
		locationID := uint(id)
		opts.LocationID = &locationID
	}
	return opts, true
}
