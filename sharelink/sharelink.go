// Package sharelink stores playground state in a link: the source text
// travels in the src query parameter and nothing is kept server-side.
package sharelink

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
)

// QueryKey is the only query parameter the playground recognizes.
const QueryKey = "src"

// DefaultProgram is shown when a location carries no source. It walks
// through the language's core features for first-time visitors.
const DefaultProgram = `tampil("Halo, Dunia!");

// Variable
andai x = 69;
x = x + 1;
tampil(x);

// Boolean
andai benar = sah;
andai salah = sesat;

jika (benar == sah) tampil("benar adalah sah");
jika (salah == sesat) tampil("salah adalah sesat");

// Object
andai obj = {"foo": "bar"};
tampil(obj);

// Array
andai arr = [1, sesat, nihil, obj, "Wesly"];

ulang (andai i = 0; i < jmlh(arr); i = i + 1) {
    tampil(arr[i]);
}
`

// Codec encodes source text into links and back.
type Codec struct {
	// Default is returned by Decode when a location has no source.
	Default string
}

// New returns a Codec that falls back to DefaultProgram.
func New() Codec {
	return Codec{Default: DefaultProgram}
}

type shareParams struct {
	Source string `url:"src"`
}

// Encode returns location with its query and fragment replaced by the
// encoded source.
func (c Codec) Encode(location, source string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parse location: %w", err)
	}

	v, err := query.Values(shareParams{Source: source})
	if err != nil {
		return "", fmt.Errorf("encode source: %w", err)
	}

	u.RawQuery = percentSpaces(v.Encode())
	u.Fragment = ""
	u.RawFragment = ""
	u.ForceQuery = true
	return u.String(), nil
}

// Decode returns the src parameter of location, verbatim, when present
// (including when it is empty). Otherwise it returns the default program.
func (c Codec) Decode(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return c.Default
	}
	return c.FromQuery(u.Query())
}

// FromQuery is Decode for an already parsed query.
func (c Codec) FromQuery(q url.Values) string {
	if !q.Has(QueryKey) {
		return c.Default
	}
	return q.Get(QueryKey)
}

// percentSpaces rewrites the form encoding of a space to %20. A literal plus
// sign is always escaped as %2B, so every remaining '+' is a space.
func percentSpaces(rawQuery string) string {
	return strings.ReplaceAll(rawQuery, "+", "%20")
}
