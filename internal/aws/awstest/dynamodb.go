// Package awstest provides in-memory stand-ins for the AWS clients used in tests.
//
// Dynamo understands only the expression shapes the stores in this module issue:
// attribute_not_exists(pk), "#s = :expected" style equality conditions and SET update
// expressions with plain values or if_not_exists(a, :zero) + :inc.
package awstest

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type Item = map[string]types.AttributeValue

// Dynamo is a multi-table in-memory DynamoDB. Each table has a single string partition key.
type Dynamo struct {
	mu     sync.Mutex
	keys   map[string]string
	tables map[string]map[string]Item

	// Err, when set, is returned by every call.
	Err error

	PutCalls      int
	GetCalls      int
	UpdateCalls   int
	TransactCalls int
}

// NewDynamo creates tables from a table name to partition key attribute mapping.
func NewDynamo(keys map[string]string) *Dynamo {
	d := &Dynamo{keys: keys, tables: map[string]map[string]Item{}}
	for t := range keys {
		d.tables[t] = map[string]Item{}
	}
	return d
}

// Item returns a copy of the stored item, or nil.
func (d *Dynamo) Item(table, pk string) Item {
	d.mu.Lock()
	defer d.mu.Unlock()
	it, ok := d.tables[table][pk]
	if !ok {
		return nil
	}
	return maps.Clone(it)
}

// Seed stores item directly.
func (d *Dynamo) Seed(table string, item Item) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pk, err := d.pkOf(table, item)
	if err != nil {
		panic(err)
	}
	d.tables[table][pk] = maps.Clone(item)
}

// Len is the number of items in table.
func (d *Dynamo) Len(table string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tables[table])
}

// StringAttr reads a string attribute of a stored item.
func (d *Dynamo) StringAttr(table, pk, attr string) string {
	it := d.Item(table, pk)
	if s, ok := it[attr].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (d *Dynamo) PutItem(ctx context.Context, in *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.PutCalls++
	if d.Err != nil {
		return nil, d.Err
	}
	table := deref(in.TableName)
	if err := d.checkPut(table, in.Item, in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues); err != nil {
		return nil, err
	}
	pk, _ := d.pkOf(table, in.Item)
	d.tables[table][pk] = maps.Clone(in.Item)
	return &dyn.PutItemOutput{}, nil
}

func (d *Dynamo) GetItem(ctx context.Context, in *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.GetCalls++
	if d.Err != nil {
		return nil, d.Err
	}
	table := deref(in.TableName)
	pk, err := d.pkOf(table, in.Key)
	if err != nil {
		return nil, err
	}
	it, ok := d.tables[table][pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: maps.Clone(it)}, nil
}

func (d *Dynamo) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.UpdateCalls++
	if d.Err != nil {
		return nil, d.Err
	}
	table := deref(in.TableName)
	item, pk, err := d.checkUpdate(table, in.Key, in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	next, err := applySet(item, in.Key, deref(in.UpdateExpression), in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	d.tables[table][pk] = next
	return &dyn.UpdateItemOutput{Attributes: maps.Clone(next)}, nil
}

func (d *Dynamo) TransactWriteItems(ctx context.Context, in *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.TransactCalls++
	if d.Err != nil {
		return nil, d.Err
	}

	reasons := make([]types.CancellationReason, len(in.TransactItems))
	failed := false
	for i, ti := range in.TransactItems {
		var err error
		switch {
		case ti.Put != nil:
			p := ti.Put
			err = d.checkPut(deref(p.TableName), p.Item, p.ConditionExpression, p.ExpressionAttributeNames, p.ExpressionAttributeValues)
		case ti.Update != nil:
			u := ti.Update
			_, _, err = d.checkUpdate(deref(u.TableName), u.Key, u.ConditionExpression, u.ExpressionAttributeNames, u.ExpressionAttributeValues)
		default:
			err = errors.New("awstest: unsupported transact item")
		}
		code := "None"
		if err != nil {
			var ccf *types.ConditionalCheckFailedException
			if !errors.As(err, &ccf) {
				return nil, err
			}
			code = "ConditionalCheckFailed"
			failed = true
		}
		reasons[i] = types.CancellationReason{Code: &code}
	}
	if failed {
		msg := "Transaction cancelled"
		return nil, &types.TransactionCanceledException{Message: &msg, CancellationReasons: reasons}
	}

	for _, ti := range in.TransactItems {
		if p := ti.Put; p != nil {
			table := deref(p.TableName)
			pk, _ := d.pkOf(table, p.Item)
			d.tables[table][pk] = maps.Clone(p.Item)
			continue
		}
		u := ti.Update
		table := deref(u.TableName)
		item, pk, _ := d.lookup(table, u.Key)
		next, err := applySet(item, u.Key, deref(u.UpdateExpression), u.ExpressionAttributeNames, u.ExpressionAttributeValues)
		if err != nil {
			return nil, err
		}
		d.tables[table][pk] = next
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

func (d *Dynamo) pkOf(table string, item Item) (string, error) {
	keyAttr, ok := d.keys[table]
	if !ok {
		return "", fmt.Errorf("awstest: unknown table %q", table)
	}
	s, ok := item[keyAttr].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("awstest: item has no %s", keyAttr)
	}
	return s.Value, nil
}

func (d *Dynamo) lookup(table string, key Item) (Item, string, error) {
	pk, err := d.pkOf(table, key)
	if err != nil {
		return nil, "", err
	}
	return d.tables[table][pk], pk, nil
}

func (d *Dynamo) checkPut(table string, item Item, cond *string, names map[string]string, values Item) error {
	existing, _, err := d.lookup(table, item)
	if err != nil {
		return err
	}
	return evalCondition(existing, deref(cond), names, values)
}

func (d *Dynamo) checkUpdate(table string, key Item, cond *string, names map[string]string, values Item) (Item, string, error) {
	existing, pk, err := d.lookup(table, key)
	if err != nil {
		return nil, "", err
	}
	if err := evalCondition(existing, deref(cond), names, values); err != nil {
		return nil, "", err
	}
	return existing, pk, nil
}

// evalCondition supports "attribute_not_exists(a)", "attribute_exists(a)" and
// "a = :v" terms joined with AND.
func evalCondition(item Item, cond string, names map[string]string, values Item) error {
	if cond == "" {
		return nil
	}
	for _, term := range strings.Split(cond, " AND ") {
		term = strings.TrimSpace(term)
		var ok bool
		switch {
		case strings.HasPrefix(term, "attribute_not_exists("):
			_, exists := item[resolve(inner(term), names)]
			ok = !exists
		case strings.HasPrefix(term, "attribute_exists("):
			_, ok = item[resolve(inner(term), names)]
		default:
			lhs, rhs, found := strings.Cut(term, "=")
			if !found {
				return fmt.Errorf("awstest: unsupported condition %q", term)
			}
			cur, exists := item[resolve(strings.TrimSpace(lhs), names)]
			want := values[strings.TrimSpace(rhs)]
			ok = exists && equalAttr(cur, want)
		}
		if !ok {
			msg := "The conditional request failed"
			return &types.ConditionalCheckFailedException{Message: &msg}
		}
	}
	return nil
}

func applySet(item, key Item, expr string, names map[string]string, values Item) (Item, error) {
	next := maps.Clone(item)
	if next == nil {
		next = maps.Clone(key)
	}
	expr = strings.TrimSpace(expr)
	if !strings.HasPrefix(expr, "SET ") {
		return nil, fmt.Errorf("awstest: unsupported update %q", expr)
	}
	for _, assign := range splitTop(strings.TrimPrefix(expr, "SET ")) {
		lhs, rhs, found := strings.Cut(assign, "=")
		if !found {
			return nil, fmt.Errorf("awstest: bad assignment %q", assign)
		}
		attr := resolve(strings.TrimSpace(lhs), names)
		rhs = strings.TrimSpace(rhs)

		if strings.HasPrefix(rhs, "if_not_exists(") {
			fn, add, _ := strings.Cut(rhs, "+")
			args := strings.Split(inner(strings.TrimSpace(fn)), ",")
			base := next[resolve(strings.TrimSpace(args[0]), names)]
			if base == nil {
				base = values[strings.TrimSpace(args[1])]
			}
			sum := number(base) + number(values[strings.TrimSpace(add)])
			next[attr] = &types.AttributeValueMemberN{Value: strconv.FormatInt(sum, 10)}
			continue
		}
		v, ok := values[rhs]
		if !ok {
			return nil, fmt.Errorf("awstest: missing value %s", rhs)
		}
		next[attr] = v
	}
	return next, nil
}

func splitTop(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}

func inner(s string) string {
	open := strings.IndexByte(s, '(')
	end := strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return s
	}
	return s[open+1 : end]
}

func resolve(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		if n, ok := names[name]; ok {
			return n
		}
	}
	return name
}

func equalAttr(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		return ok && av.Value == bv.Value
	}
	return false
}

func number(v types.AttributeValue) int64 {
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	i, _ := strconv.ParseInt(n.Value, 10, 64)
	return i
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
