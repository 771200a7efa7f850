package crud

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/cast"

	"gocrud/data/orm/repo"
	"gocrud/errors"
)

// Params 请求参数。值通常为 string（单值）或 []string（重复参数）。
type Params map[string]any

// 保留参数名，其余参数都视为自由过滤
const (
	ParamFilterOptions = "filter_options"
	ParamRelations     = "relations"
	ParamCounts        = "counts"
	ParamSorts         = "sorts"
	ParamFields        = "fields"
	ParamSearch        = "search"
	ParamSearchFields  = "search_fields"
	ParamPage          = "page"
	ParamLimit         = "limit"
	ParamNoPagination  = "no_pagination"
)

var reservedParams = map[string]struct{}{
	ParamFilterOptions: {}, ParamRelations: {}, ParamCounts: {}, ParamSorts: {},
	ParamFields: {}, ParamSearch: {}, ParamSearchFields: {}, ParamPage: {},
	ParamLimit: {}, ParamNoPagination: {},
}

// PrepareOptions 把请求参数解析为仓储查询选项。
// 非法操作符、非字符串的 relations/counts 返回校验错误。
func (s *Service[T]) PrepareOptions(params Params) (*repo.QueryOptions, error) {
	opts := &repo.QueryOptions{Page: 1, Limit: s.cfg.DefaultLimit}

	for _, key := range sortedKeys(s.cfg.Excludes) {
		opts.Filters = append(opts.Filters, repo.Filter{
			Field:    key,
			Value:    s.cfg.Excludes[key],
			Operator: repo.OpNotEqual,
		})
	}

	operators, err := parseFilterOptions(params[ParamFilterOptions])
	if err != nil {
		return nil, err
	}
	for _, key := range sortedKeys(params) {
		if _, reserved := reservedParams[key]; reserved {
			continue
		}
		field, ok := s.filterField(key)
		if !ok {
			continue
		}
		op, ok := operators[key]
		if !ok {
			op = repo.OpEqual
		}
		opts.Filters = append(opts.Filters, repo.Filter{
			Field:    field,
			Value:    splitValue(params[key]),
			Operator: op,
		})
	}

	relations, err := s.allowedRelations(params, ParamRelations)
	if err != nil {
		return nil, err
	}
	for _, name := range relations {
		target := s.cfg.AllowedRelations[name]
		opts.Relations = append(opts.Relations, repo.Relation{
			Name:       target.Relation(),
			Constraint: target.Constraint(),
		})
	}
	counts, err := s.allowedRelations(params, ParamCounts)
	if err != nil {
		return nil, err
	}
	for _, name := range counts {
		opts.Counts = append(opts.Counts, s.cfg.AllowedRelations[name].Relation())
	}

	opts.Sorts = parseSorts(params[ParamSorts])
	opts.Fields = splitList(cast.ToString(params[ParamFields]))
	opts.Search = strings.TrimSpace(cast.ToString(params[ParamSearch]))
	for _, f := range splitList(cast.ToString(params[ParamSearchFields])) {
		if field, ok := s.filterField(f); ok {
			opts.SearchFields = append(opts.SearchFields, field)
		}
	}

	if page := cast.ToInt(params[ParamPage]); page > 1 {
		opts.Page = page
	}
	_, hasLimit := params[ParamLimit]
	if limit := cast.ToInt(params[ParamLimit]); limit > 0 {
		opts.Limit = limit
	} else {
		hasLimit = false
	}
	if s.cfg.MaxLimit > 0 && opts.Limit > s.cfg.MaxLimit {
		opts.Limit = s.cfg.MaxLimit
	}
	if noPagination(params) && !hasLimit {
		opts.Limit = 0
	}
	return opts, nil
}

// AppendFilters 追加过滤条件，操作符必须在白名单内。
func (s *Service[T]) AppendFilters(opts *repo.QueryOptions, filters ...repo.Filter) error {
	if opts == nil {
		return errors.NewError(errors.ErrCodeInvalidInput, "query options is nil")
	}
	for _, f := range filters {
		op, ok := repo.ParseOperator(string(f.Operator))
		if !ok {
			return invalidOperator(f.Field, string(f.Operator))
		}
		f.Operator = op
		opts.Filters = append(opts.Filters, f)
	}
	return nil
}

// filterField 自由过滤参数名映射到内部字段
func (s *Service[T]) filterField(key string) (string, bool) {
	if s.cfg.Filterable == nil {
		return key, true
	}
	field, ok := s.cfg.Filterable[key]
	return field, ok
}

// allowedRelations 解析 relations/counts 参数并按白名单过滤，返回对外名称
func (s *Service[T]) allowedRelations(params Params, key string) ([]string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return nil, nil
	}
	value, ok := raw.(string)
	if !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("%s must be a comma separated string", key)).
			WithContext("param", key)
	}
	var names []string
	for _, name := range splitList(value) {
		name = lowerCamel(name)
		if _, allowed := s.cfg.AllowedRelations[name]; allowed {
			names = append(names, name)
		}
	}
	return names, nil
}

// parseFilterOptions field:op,field2:op2；缺省操作符为 =
func parseFilterOptions(raw any) (map[string]repo.Operator, error) {
	out := make(map[string]repo.Operator)
	if raw == nil {
		return out, nil
	}
	value, err := cast.ToStringE(raw)
	if err != nil {
		return nil, errors.NewValidationError("filter_options must be a string").
			WithContext("param", ParamFilterOptions)
	}
	for _, entry := range splitList(value) {
		field, opName, found := strings.Cut(entry, ":")
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if !found {
			out[field] = repo.OpEqual
			continue
		}
		op, ok := repo.ParseOperator(opName)
		if !ok {
			return nil, invalidOperator(field, opName)
		}
		out[field] = op
	}
	return out, nil
}

// parseSorts field:direction 列表，方向缺失或非法的项被丢弃
func parseSorts(raw any) []repo.Sort {
	var sorts []repo.Sort
	for _, entry := range splitList(cast.ToString(raw)) {
		field, dir, found := strings.Cut(entry, ":")
		if !found {
			continue
		}
		direction, ok := repo.ParseSortDirection(dir)
		if !ok {
			continue
		}
		sorts = append(sorts, repo.Sort{Field: strings.TrimSpace(field), Direction: direction})
	}
	return sorts
}

func invalidOperator(field, op string) error {
	return errors.NewValidationError(fmt.Sprintf("invalid operator %q for field %q", op, field)).
		WithContext("field", field).
		WithContext("operator", op)
}

// splitValue 含逗号的字符串拆成序列；重复参数（[]string）本身就是序列
func splitValue(v any) any {
	s, ok := v.(string)
	if !ok || !strings.Contains(s, ",") {
		return v
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// splitList 逗号分隔、去空白、丢弃空项
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// lowerCamel snake_case / kebab-case → lowerCamelCase，已是 camelCase 的保持不变
func lowerCamel(s string) string {
	var b strings.Builder
	upper := false
	for i, r := range s {
		switch {
		case r == '_' || r == '-':
			upper = b.Len() > 0
		case upper:
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		case i == 0:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func noPagination(params Params) bool {
	raw, ok := params[ParamNoPagination]
	if !ok {
		return false
	}
	if s, isString := raw.(string); isString && s == "" {
		return true
	}
	return cast.ToBool(raw)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
