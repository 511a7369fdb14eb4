package atlas

import (
	"fmt"
	"strconv"
	"strings"
)

// Query builds an RMA query chain for one upstream model. The encoded form
// looks like:
//
//	model::EphysSweep,rma::criteria,[specimen_id$eq12345],rma::options[num_rows$eq50][start_row$eq0]
type Query struct {
	model    string
	criteria []string
	include  []string
	options  []string
}

// NewQuery creates a query against the named upstream model
func NewQuery(model string) *Query {
	return &Query{model: model}
}

// Criteria appends filter terms to the query
func (q *Query) Criteria(terms ...string) *Query {
	q.criteria = append(q.criteria, terms...)
	return q
}

// Include appends association includes to the query
func (q *Query) Include(assocs ...string) *Query {
	q.include = append(q.include, assocs...)
	return q
}

// Order appends an ordering option on the given field
func (q *Query) Order(field string) *Query {
	q.options = append(q.options, fmt.Sprintf("[order$eq'%s']", field))
	return q
}

// Page appends paging options. The upstream caps num_rows, so callers page
// until start_row+num_rows reaches total_rows.
func (q *Query) Page(startRow, numRows int) *Query {
	q.options = append(q.options,
		fmt.Sprintf("[num_rows$eq%d]", numRows),
		fmt.Sprintf("[start_row$eq%d]", startRow))
	return q
}

// String encodes the chain as the q parameter value
func (q *Query) String() string {
	parts := []string{"model::" + q.model}
	if len(q.criteria) > 0 {
		parts = append(parts, "rma::criteria", strings.Join(q.criteria, ","))
	}
	if len(q.include) > 0 {
		parts = append(parts, "rma::include", strings.Join(q.include, ","))
	}
	if len(q.options) > 0 {
		parts = append(parts, "rma::options"+strings.Join(q.options, ""))
	}
	return strings.Join(parts, ",")
}

// Eq returns a criteria term matching field equal to value
func Eq(field string, value interface{}) string {
	return fmt.Sprintf("[%s$eq%v]", field, value)
}

// ILike returns a case-insensitive match term on a quoted string
func ILike(field, value string) string {
	return fmt.Sprintf("[%s$il'%s']", field, value)
}

// In returns a criteria term matching field against a set of IDs
func In(field string, ids []int64) string {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("[%s$in%s]", field, strings.Join(strs, ","))
}
