package filterexpr

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

type predicate struct {
	field string
	op    Op
	value any
}

var binaryOps = map[string]Op{
	"_==_": OpEQ,
	"_>=_": OpGTE,
	"_<=_": OpLTE,
}

func parsePredicate(expr *exprpb.Expr) (predicate, error) {
	call := expr.GetCallExpr()
	if call == nil {
		return predicate{}, errors.New("expected a comparison or function call")
	}

	fn := call.GetFunction()
	if op, ok := binaryOps[fn]; ok {
		if call.GetTarget() != nil || len(call.GetArgs()) != 2 {
			return predicate{}, fmt.Errorf("operator %q expects two operands", op)
		}
		return newPredicate(call.GetArgs()[0], call.GetArgs()[1], op)
	}

	switch fn {
	case "@in", "_in_":
		if len(call.GetArgs()) != 2 {
			return predicate{}, errors.New("in expects two operands")
		}
		return newPredicate(call.GetArgs()[0], call.GetArgs()[1], OpIN)
	case "startsWith":
		if call.GetTarget() == nil || len(call.GetArgs()) != 1 {
			return predicate{}, errors.New("startsWith must be called on a field with one argument")
		}
		pred, err := newPredicate(call.GetTarget(), call.GetArgs()[0], OpSW)
		if err != nil {
			return predicate{}, err
		}
		if _, ok := pred.value.(string); !ok {
			return predicate{}, errors.New("startsWith requires a string argument")
		}
		return pred, nil
	default:
		return predicate{}, fmt.Errorf("function %q is not supported", fn)
	}
}

func newPredicate(fieldExpr, valueExpr *exprpb.Expr, op Op) (predicate, error) {
	ident := fieldExpr.GetIdentExpr()
	if ident == nil {
		return predicate{}, errors.New("left-hand side must be a field name")
	}
	value, err := parseLiteral(valueExpr)
	if err != nil {
		return predicate{}, err
	}
	return predicate{field: ident.GetName(), op: op, value: value}, nil
}

func parseLiteral(expr *exprpb.Expr) (any, error) {
	if c := expr.GetConstExpr(); c != nil {
		switch c.GetConstantKind().(type) {
		case *exprpb.Constant_StringValue:
			return c.GetStringValue(), nil
		case *exprpb.Constant_BoolValue:
			return c.GetBoolValue(), nil
		default:
			return nil, fmt.Errorf("literal type %T is not supported", c.GetConstantKind())
		}
	}

	if list := expr.GetListExpr(); list != nil {
		values := make([]string, 0, len(list.GetElements()))
		for i, elem := range list.GetElements() {
			s := elem.GetConstExpr().GetStringValue()
			if _, ok := elem.GetConstExpr().GetConstantKind().(*exprpb.Constant_StringValue); !ok {
				return nil, fmt.Errorf("list element %d must be a string literal", i)
			}
			values = append(values, s)
		}
		return values, nil
	}

	if call := expr.GetCallExpr(); call != nil && call.GetFunction() == "timestamp" {
		if len(call.GetArgs()) != 1 {
			return nil, errors.New("timestamp() expects one string argument")
		}
		raw := call.GetArgs()[0].GetConstExpr().GetStringValue()
		if raw == "" {
			return nil, errors.New("timestamp() argument must be a non-empty string literal")
		}
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("timestamp literal %q is not RFC3339", raw)
		}
		return t, nil
	}

	return nil, errors.New("right-hand side must be a literal, a list of strings or timestamp()")
}

func checkLiteral(kind ValueKind, op Op, value any) error {
	switch kind {
	case KindString:
		if op == OpIN {
			list, ok := value.([]string)
			if !ok || len(list) == 0 {
				return errors.New("expected a non-empty list of strings")
			}
			for _, item := range list {
				if item == "" {
					return errors.New("list must not contain empty strings")
				}
			}
			return nil
		}
		if _, ok := value.(string); !ok {
			return errors.New("expected a string literal")
		}
	case KindBool:
		if _, ok := value.(bool); !ok {
			return errors.New("expected true or false")
		}
	case KindTimestamp:
		if _, ok := value.(time.Time); !ok {
			return errors.New("expected timestamp('...')")
		}
	default:
		return fmt.Errorf("unsupported kind %q", kind)
	}
	return nil
}

var timeType = reflect.TypeOf(time.Time{})

func assign(field reflect.Value, value any) error {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return assign(field.Elem(), value)
	}

	switch v := value.(type) {
	case string:
		if field.Kind() != reflect.String {
			return fmt.Errorf("cannot assign string to %s", field.Type())
		}
		field.SetString(v)
	case bool:
		if field.Kind() != reflect.Bool {
			return fmt.Errorf("cannot assign bool to %s", field.Type())
		}
		field.SetBool(v)
	case []string:
		if field.Kind() != reflect.Slice || field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("cannot assign []string to %s", field.Type())
		}
		field.Set(reflect.ValueOf(append([]string(nil), v...)))
	case time.Time:
		if field.Type() != timeType {
			return fmt.Errorf("cannot assign time to %s", field.Type())
		}
		field.Set(reflect.ValueOf(v))
	default:
		return fmt.Errorf("unsupported literal %T", value)
	}
	return nil
}
