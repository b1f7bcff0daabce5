// Package filterexpr binds a small CEL subset ("field op literal" terms joined
// with &&) and an "order_by" clause onto a typed query params struct.
package filterexpr

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/cel-go/cel"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Msg is anything carrying raw filter and order_by input.
type Msg interface {
	GetFilter() string
	GetOrderBy() string
}

// ValueKind is the literal type a filter field accepts.
type ValueKind string

const (
	KindString    ValueKind = "string"
	KindBool      ValueKind = "bool"
	KindTimestamp ValueKind = "timestamp"
)

// Op is a supported comparison.
type Op string

const (
	OpEQ  Op = "=="
	OpGTE Op = ">="
	OpLTE Op = "<="
	OpSW  Op = "startsWith"
	OpIN  Op = "in"
)

// SetterFunc assigns a literal to a params field when plain assignment does
// not fit.
type SetterFunc func(field reflect.Value, value any) error

// FilterField maps a filter identifier to params struct fields, one per
// allowed operator.
type FilterField struct {
	Kind   ValueKind
	Ops    map[Op]string
	Setter SetterFunc
}

// OrderField maps an order key to a column expression.
type OrderField struct {
	Expr string
}

// OrderSchema whitelists order keys and supplies defaults.
type OrderSchema struct {
	DefaultPrimary     string
	DefaultPrimaryDesc bool
	FallbackKey        string
	FallbackDesc       bool
	Fields             map[string]OrderField
}

// ResourceSchema holds the filter and order rules of one resource.
type ResourceSchema struct {
	Filter map[string]FilterField
	Order  OrderSchema
}

// Bind parses msg's filter and order_by into binding. The params struct must
// expose PrimaryKey, PrimaryDesc, SecondaryKey and SecondaryDesc fields.
func Bind[M Msg, P any](msg M, binding *P, schema ResourceSchema) error {
	if binding == nil {
		return errors.New("binding must not be nil")
	}

	dest := reflect.ValueOf(binding).Elem()
	if dest.Kind() != reflect.Struct {
		return errors.New("binding must point to a struct")
	}

	if err := bindFilter(dest, msg.GetFilter(), schema.Filter); err != nil {
		return fmt.Errorf("filter: %w", err)
	}

	order, err := parseOrderBy(msg.GetOrderBy(), schema.Order)
	if err != nil {
		return fmt.Errorf("order_by: %w", err)
	}
	return setOrderParams(dest, order)
}

func bindFilter(dest reflect.Value, filter string, fields map[string]FilterField) error {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil
	}
	if len(fields) == 0 {
		return errors.New("resource does not support filtering")
	}

	env, err := newEnv(fields)
	if err != nil {
		return err
	}
	ast, issues := env.Parse(filter)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("invalid filter: %w", issues.Err())
	}
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return fmt.Errorf("convert filter: %w", err)
	}

	terms, err := conjuncts(parsed.GetExpr())
	if err != nil {
		return err
	}
	for _, term := range terms {
		if err := bindTerm(dest, term, fields); err != nil {
			return err
		}
	}
	return nil
}

func bindTerm(dest reflect.Value, term *exprpb.Expr, fields map[string]FilterField) error {
	pred, err := parsePredicate(term)
	if err != nil {
		return err
	}

	rule, ok := fields[pred.field]
	if !ok {
		return fmt.Errorf("field %q is not allowed", pred.field)
	}
	target, ok := rule.Ops[pred.op]
	if !ok {
		return fmt.Errorf("operator %q is not allowed for field %q", pred.op, pred.field)
	}
	if err := checkLiteral(rule.Kind, pred.op, pred.value); err != nil {
		return fmt.Errorf("field %q: %w", pred.field, err)
	}

	field := dest.FieldByName(target)
	if !field.IsValid() || !field.CanSet() {
		return fmt.Errorf("params struct %s has no settable field %q", dest.Type(), target)
	}
	if rule.Setter != nil {
		if field.Kind() == reflect.Ptr && field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		if err := rule.Setter(field, pred.value); err != nil {
			return fmt.Errorf("set %q: %w", target, err)
		}
		return nil
	}
	if err := assign(field, pred.value); err != nil {
		return fmt.Errorf("set %q: %w", target, err)
	}
	return nil
}

func newEnv(fields map[string]FilterField) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(fields))
	for name, rule := range fields {
		var typ *cel.Type
		switch rule.Kind {
		case KindString:
			typ = cel.StringType
		case KindBool:
			typ = cel.BoolType
		case KindTimestamp:
			typ = cel.TimestampType
		default:
			return nil, fmt.Errorf("field %q: unsupported kind %q", name, rule.Kind)
		}
		opts = append(opts, cel.Variable(name, typ))
	}
	return cel.NewEnv(opts...)
}

// conjuncts flattens nested && calls. Any other logical operator is refused.
func conjuncts(expr *exprpb.Expr) ([]*exprpb.Expr, error) {
	if expr == nil {
		return nil, errors.New("empty expression")
	}
	call := expr.GetCallExpr()
	if call == nil {
		return []*exprpb.Expr{expr}, nil
	}

	switch call.GetFunction() {
	case "_&&_":
		var out []*exprpb.Expr
		for _, arg := range call.GetArgs() {
			terms, err := conjuncts(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, terms...)
		}
		return out, nil
	case "_||_", "_?_:_", "!_":
		return nil, fmt.Errorf("operator %q is not supported; only && is allowed", call.GetFunction())
	default:
		return []*exprpb.Expr{expr}, nil
	}
}
