package services

import (
	"strings"

	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"
	"tableadmin/internal/utils"
)

// ParseCriteria builds filter criteria from the raw filter inputs. Blank
// inputs mean "any status", "no lower bound" and "no upper bound".
func ParseCriteria(status, minAmount, maxAmount string) (domain.Criteria, error) {
	var c domain.Criteria
	if strings.EqualFold(strings.TrimSpace(status), "any") {
		status = ""
	}
	st, ok := models.ParseStatus(status)
	if !ok {
		return c, domain.ValidationError{Field: "status", Msg: "must be Active, Inactive or empty"}
	}
	c.Status = st

	if v := utils.TrimOrEmpty(minAmount); v != "" {
		d, err := utils.ParseAmount(v)
		if err != nil {
			return c, domain.ValidationError{Field: "minAmount", Msg: "not an amount: " + v, Err: err}
		}
		c.MinAmount = d
	}
	if v := utils.TrimOrEmpty(maxAmount); v != "" {
		d, err := utils.ParseAmount(v)
		if err != nil {
			return c, domain.ValidationError{Field: "maxAmount", Msg: "not an amount: " + v, Err: err}
		}
		c.MaxAmount = &d
	}
	return c, c.Validate()
}
