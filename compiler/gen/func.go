package gen

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Funcs are the predefined functions available to generation templates.
// The naming helpers are shared with the programmatic generators so that
// template output and builder output agree on every identifier.
var Funcs = template.FuncMap{
	"add":        add,
	"allZero":    allZero,
	"camel":      camel,
	"dict":       dict,
	"extend":     extend,
	"fail":       fail,
	"get":        get,
	"hasField":   hasField,
	"hasImport":  hasImport,
	"hasKey":     hasKey,
	"hasPrefix":  strings.HasPrefix,
	"hasSuffix":  strings.HasSuffix,
	"indexOf":    indexOf,
	"isNil":      isNil,
	"join":       join,
	"joinWords":  joinWords,
	"jsonString": jsonString,
	"kebab":      kebab,
	"keys":       keys,
	"label":      label,
	"list":       list[any],
	"lower":      strings.ToLower,
	"maxlen":     maxlen,
	"pascal":     pascal,
	"plural":     plural,
	"quote":      quote,
	"receiver":   receiver,
	"replace":    strings.ReplaceAll,
	"set":        set,
	"snake":      snake,
	"toString":   toString,
	"trim":       strings.TrimSpace,
	"unset":      unset,
	"upper":      strings.ToUpper,
	"xrange":     xrange,
}

var (
	rules    = ruleset()
	acronyms = make(map[string]struct{})
)

func ruleset() *inflect.Ruleset {
	r := inflect.NewRuleset()
	// Predictable pluralization only. Irregular nouns are deliberately
	// left out so that an entity name always maps to the same table and
	// route regardless of locale or dictionary coverage.
	r.AddPlural("", "s")
	r.AddPlural("s", "ses")
	r.AddPlural("x", "xes")
	r.AddPlural("z", "zes")
	r.AddPlural("ch", "ches")
	r.AddPlural("sh", "shes")
	for _, c := range "bcdfghjklmnpqrstvwxz" {
		r.AddPlural(string(c)+"y", string(c)+"ies")
	}
	for _, w := range []string{"data", "equipment", "information", "news", "series", "species"} {
		r.AddUncountable(w)
	}
	for _, w := range []string{
		"ACL", "API", "ASCII", "AWS", "CPU", "CSS", "DNS", "EOF", "GB", "GUID",
		"HCL", "HTML", "HTTP", "HTTPS", "ID", "IP", "JSON", "KB", "LHS", "MAC",
		"MB", "QPS", "RAM", "RHS", "RPC", "SLA", "SMTP", "SQL", "SSH", "SSO",
		"TCP", "TLS", "TTL", "UDP", "UI", "UID", "URI", "URL", "UTF8", "UUID",
		"VM", "XML", "XMPP", "XSRF", "XSS",
	} {
		acronyms[w] = struct{}{}
		r.AddAcronym(w)
	}
	return r
}

// AddAcronym adds an initialism to the naming ruleset, so that pascal
// and camel keep it uppercased.
func AddAcronym(word string) {
	acronyms[word] = struct{}{}
	rules.AddAcronym(word)
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '\t'
}

// snake converts the given entity or field name into snake_case.
//
//	Username  => username
//	FullName  => full_name
//	HTTPCode  => http_code
func snake(s string) string {
	var (
		j int
		b strings.Builder
	)
	for i := 0; i < len(s); i++ {
		r := rune(s[i])
		// Put '_' if it is not a start or end of a word, the current
		// letter is uppercase, and the previous letter is lowercase
		// ("UserInfo"), or the next letter is lowercase and the previous
		// is not already a boundary ("HTTPCode").
		if i > 0 && i < len(s)-1 && unicode.IsUpper(r) {
			if unicode.IsLower(rune(s[i-1])) ||
				j != i-1 && unicode.IsLower(rune(s[i+1])) && unicode.IsLetter(rune(s[i-1])) {
				j = i
				b.WriteString("_")
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// kebab converts the given name into kebab-case. It is used for route
// segments and artifact file names on targets with dashed conventions.
//
//	FullName  => full-name
//	user_card => user-card
func kebab(s string) string {
	return strings.ReplaceAll(snake(s), "_", "-")
}

// pascal converts the given name into PascalCase.
//
//	user_info  => UserInfo
//	full_name  => FullName
//	user_id    => UserID
//	full-admin => FullAdmin
func pascal(s string) string {
	words := strings.FieldsFunc(s, isSeparator)
	return pascalWords(words)
}

func pascalWords(words []string) string {
	var b strings.Builder
	for _, w := range words {
		upper := strings.ToUpper(w)
		if _, ok := acronyms[upper]; ok {
			b.WriteString(upper)
			continue
		}
		if len(w) > 1 {
			upper = strings.ToUpper(w[:1]) + w[1:]
		}
		b.WriteString(upper)
	}
	return b.String()
}

// camel converts the given name into camelCase.
//
//	user_info  => userInfo
//	full_name  => fullName
//	user_id    => userID
func camel(s string) string {
	words := strings.FieldsFunc(s, isSeparator)
	if len(words) == 0 {
		return s
	}
	if len(words) == 1 {
		return strings.ToLower(words[0])
	}
	return strings.ToLower(words[0]) + pascalWords(words[1:])
}

// label converts the given name into a human-readable label for UI
// artifacts. Each word is title-cased and known initialisms stay upper.
//
//	full_name => Full Name
//	user_id   => User ID
func label(s string) string {
	title := cases.Title(language.English)
	words := strings.FieldsFunc(snake(s), isSeparator)
	for i, w := range words {
		if u := strings.ToUpper(w); hasAcronym(u) {
			words[i] = u
			continue
		}
		words[i] = title.String(w)
	}
	return strings.Join(words, " ")
}

func hasAcronym(word string) bool {
	_, ok := acronyms[word]
	return ok
}

// plural a name for table and route naming. Uncountable nouns get a
// "Slice" suffix so that the plural form stays distinct.
//
//	User     => Users
//	Category => Categories
//	Data     => DataSlice
func plural(name string) string {
	p := rules.Pluralize(name)
	if p == name {
		p += "Slice"
	}
	return p
}

// receiver returns the receiver name of the given generated type.
//
//	[]User     => u
//	UserQuery  => uq
//	HTTPClient => hc
func receiver(s string) (r string) {
	// Trim invalid tokens for an identifier prefix.
	s = strings.Trim(s, "[]*&0123456789")
	parts := strings.Split(snake(s), "_")
	min := len(parts[0])
	for _, w := range parts[1:] {
		if len(w) < min {
			min = len(w)
		}
	}
	for i := 1; i < min; i++ {
		r := parts[0][:i]
		for _, w := range parts[1:] {
			r += w[:i]
		}
		if _, ok := importPkg[r]; !ok {
			return r
		}
	}
	for _, w := range parts {
		r += w[:1]
	}
	return r
}

// importPkg holds the package identifiers the generated Go artifacts
// import. Receiver names must not shadow them.
var importPkg = names(
	"bytes",
	"context",
	"errors",
	"fmt",
	"json",
	"sort",
	"strconv",
	"strings",
	"time",
)

func hasImport(name string) bool {
	_, ok := importPkg[name]
	return ok
}

func names(ids ...string) map[string]struct{} {
	m := make(map[string]struct{})
	for i := range ids {
		m[ids[i]] = struct{}{}
	}
	return m
}

// maxlen returns the length of the longest string in the slice.
func maxlen(ss []string) (n int) {
	for _, s := range ss {
		if len(s) > n {
			n = len(s)
		}
	}
	return n
}

// xrange returns a slice of indexes for range iteration in templates.
func xrange(n int) (a []int) {
	for i := 0; i < n; i++ {
		a = append(a, i)
	}
	return a
}

func add(xs ...int) (n int) {
	for _, x := range xs {
		n += x
	}
	return n
}

// quote wraps string values with double quotes and keeps any other
// value untouched, so templates can embed defaults literally.
func quote(v any) any {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return v
}

func indexOf(a []string, s string) int {
	for i := range a {
		if a[i] == s {
			return i
		}
	}
	return -1
}

// joinWords joins the given words, wrapping to a new line whenever the
// running width exceeds size. Continuation lines are indented by one
// space, which keeps wrapped comments aligned in generated files.
func joinWords(words []string, size int) string {
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(words[0])
	n := len(words[0])
	for _, w := range words[1:] {
		if n+len(w)+1 > size {
			b.WriteString("\n ")
			n = len(w) + 1
		} else {
			b.WriteString(" ")
			n += len(w) + 1
		}
		b.WriteString(w)
	}
	return b.String()
}

type (
	// typeScope wraps a Type with extra template scope.
	typeScope struct {
		*Type
		Scope map[any]any
	}
	// graphScope wraps a Graph with extra template scope.
	graphScope struct {
		*Graph
		Scope map[any]any
	}
)

// extend extends the parameters of a template execution with a key/value
// scope, keeping the wrapped Type or Graph accessible to nested templates.
func extend(v any, kv ...any) (any, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("invalid number of parameters: %d", len(kv))
	}
	scope := make(map[any]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		scope[kv[i]] = kv[i+1]
	}
	switch v := v.(type) {
	case *Type:
		return &typeScope{Type: v, Scope: scope}, nil
	case *Graph:
		return &graphScope{Graph: v, Scope: scope}, nil
	case *typeScope:
		for k := range v.Scope {
			scope[k] = v.Scope[k]
		}
		return &typeScope{Type: v.Type, Scope: scope}, nil
	case *graphScope:
		for k := range v.Scope {
			scope[k] = v.Scope[k]
		}
		return &graphScope{Graph: v.Graph, Scope: scope}, nil
	default:
		return nil, fmt.Errorf("invalid type for extend: %T", v)
	}
}

// dict builds a map from the given key/value pairs. A trailing key
// without a value maps to the empty string.
func dict(v ...any) map[string]any {
	d := make(map[string]any, len(v)/2)
	for i := 0; i < len(v); i += 2 {
		key := toString(v[i])
		if i+1 < len(v) {
			d[key] = v[i+1]
		} else {
			d[key] = ""
		}
	}
	return d
}

func get(d map[string]any, key string) any {
	if v, ok := d[key]; ok {
		return v
	}
	return ""
}

func set(d map[string]any, key string, value any) map[string]any {
	d[key] = value
	return d
}

func unset(d map[string]any, key string) map[string]any {
	delete(d, key)
	return d
}

func hasKey(d map[string]any, key string) bool {
	_, ok := d[key]
	return ok
}

func list[T any](v ...T) []T {
	return v
}

// fail unconditionally returns an error with the given text, aborting
// the execution of the calling template.
func fail(msg string) (string, error) {
	return "", errors.New(msg)
}

func jsonString(v any) (string, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// allZero reports if all given values are their type's zero value.
func allZero(vs ...any) bool {
	for _, v := range vs {
		if v == nil {
			continue
		}
		if !reflect.ValueOf(v).IsZero() {
			return false
		}
	}
	return true
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}

// hasField determines if a struct has a field with the given name.
func hasField(v any, name string) bool {
	vr := reflect.Indirect(reflect.ValueOf(v))
	return vr.FieldByName(name).IsValid()
}

func toString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// keys returns the sorted keys of the given map value.
func keys(v reflect.Value) ([]string, error) {
	v = reflect.Indirect(v)
	if v.Kind() != reflect.Map {
		return nil, fmt.Errorf("expect map for keys, got: %s", v.Kind())
	}
	ks := make([]string, 0, v.Len())
	for _, k := range v.MapKeys() {
		ks = append(ks, k.String())
	}
	sort.Strings(ks)
	return ks, nil
}

// join joins and sorts the given string slice, so template output stays
// stable regardless of map iteration order upstream.
func join(a []string, sep string) string {
	s := make([]string, len(a))
	copy(s, a)
	sort.Strings(s)
	return strings.Join(s, sep)
}
