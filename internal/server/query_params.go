package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/maidbook/pkg/db/pagination"
)

const (
	dateOnlyLayout = "2006-01-02"
	maxPageSize    = 100
)

// timeRange is an optional [from, to] window taken from two query keys.
type timeRange struct {
	From *time.Time
	To   *time.Time
}

// parseTimeRange accepts RFC3339 or bare dates. A bare date is read in the
// business timezone and covers the whole day on the upper bound.
func parseTimeRange(c *gin.Context, loc *time.Location, fromKey, toKey string) (timeRange, error) {
	var out timeRange
	var err error
	if out.From, err = parseBoundary(c.Query(fromKey), loc, false); err != nil {
		return timeRange{}, newValidationError(fromKey, "invalid_"+fromKey, "invalid "+fromKey)
	}
	if out.To, err = parseBoundary(c.Query(toKey), loc, true); err != nil {
		return timeRange{}, newValidationError(toKey, "invalid_"+toKey, "invalid "+toKey)
	}
	if out.From != nil && out.To != nil && out.To.Before(*out.From) {
		return timeRange{}, newValidationError(toKey, "invalid_"+toKey, toKey+" must not be before "+fromKey)
	}
	return out, nil
}

func parseBoundary(raw string, loc *time.Location, upper bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts, nil
	}
	day, err := time.ParseInLocation(dateOnlyLayout, raw, loc)
	if err != nil {
		return nil, err
	}
	if upper {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &day, nil
}

// parseOptionalBool treats an absent flag as "no filter".
func parseOptionalBool(raw string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseSnowflakeParam(c *gin.Context, name string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param(name)))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parsePagination reads page_token and page_size from the query string.
func parsePagination(c *gin.Context) (string, int32, error) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil || page.PageSize < 0 || page.PageSize > maxPageSize {
		return "", 0, newValidationError("page_size", "invalid_page_size", "page_size must be between 1 and 100")
	}
	return strings.TrimSpace(page.PageToken), int32(page.PageSize), nil
}
