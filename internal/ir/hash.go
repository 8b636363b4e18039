package ir

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content-addressed identity. The version suffix
// enables future algorithm migration without colliding with old hashes.
const (
	DomainEvent     = "bp/event/v1"
	DomainStatement = "bp/statement/v1"
	DomainSnapshot  = "bp/snapshot/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventHash computes a content-addressed hash for an event. Two equal
// events (per Event.Equal) always hash identically.
func EventHash(e Event) (string, error) {
	obj := IRObject{"name": IRString(e.Name)}
	if e.Payload != nil {
		obj["payload"] = e.Payload
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EventHash: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}

// MustEventHash is like EventHash but panics on error. Event payloads are
// expected to be well-formed IRValue trees constructed by the engine, so a
// failure here indicates a programming error, not bad input.
func MustEventHash(e Event) string {
	h, err := EventHash(e)
	if err != nil {
		panic(err)
	}
	return h
}

// StatementHash computes a content-addressed hash for a sync statement's
// structural contents, given its fields already reduced to comparable
// fingerprints by the caller (the syncstmt package owns the SyncStatement
// type; ir stays free of that dependency so the foundational layer has no
// upward imports).
//
// request is the ordered list of requested event hashes (order matters:
// two statements requesting the same events in different orders are
// structurally different per spec.md §4.2). waitFor, block, and interrupt
// are set fingerprints supplied by the caller (order-independent).
func StatementHash(request []string, waitFor, block, interrupt string, hasBreakUpon bool) (string, error) {
	reqArr := make(IRArray, len(request))
	for i, h := range request {
		reqArr[i] = IRString(h)
	}
	obj := IRObject{
		"request":        reqArr,
		"wait_for":       IRString(waitFor),
		"block":          IRString(block),
		"interrupt":      IRString(interrupt),
		"has_break_upon": IRBool(hasBreakUpon),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("StatementHash: %w", err)
	}
	return hashWithDomain(DomainStatement, canonical), nil
}

// SnapshotHash computes a content-addressed hash for a program snapshot,
// given the per-b-thread statement hashes (already ordered by the caller
// into a deterministic order — typically registration order) and,
// optionally, the external queue contents. Passing a nil queueHashes slice
// implements the queue-insensitive comparator from spec.md's Open
// Questions; passing the queue's event hashes implements the
// queue-sensitive (default) comparator.
func SnapshotHash(bthreadHashes []string, queueHashes []string, daemon bool) (string, error) {
	bArr := make(IRArray, len(bthreadHashes))
	for i, h := range bthreadHashes {
		bArr[i] = IRString(h)
	}
	obj := IRObject{
		"bthreads": bArr,
		"daemon":   IRBool(daemon),
	}
	if queueHashes != nil {
		qArr := make(IRArray, len(queueHashes))
		for i, h := range queueHashes {
			qArr[i] = IRString(h)
		}
		obj["queue"] = qArr
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("SnapshotHash: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// MarshalCanonical serializes v as RFC 8785 canonical JSON: the one
// encoding every hash function above feeds into SHA-256. Two events,
// statements, or snapshots that marshal to the same canonical bytes are
// the same event, statement, or snapshot — so this encoding, and only
// this encoding, may feed a content-addressed hash.
//
// It differs from json.Marshal in exactly the ways that matter for
// hash stability across platforms and over time: object keys sort by
// UTF-16 code unit (not Go's UTF-8 byte order), strings are NFC
// normalized before encoding, HTML characters are left unescaped, and
// floats and null are rejected outright — a b-thread that tried to
// request an event keyed on a float payload would get non-reproducible
// hashes depending on the runtime's float formatting, so it's rejected
// at the boundary instead.
func MarshalCanonical(v any) ([]byte, error) {
	return marshalCanonical(v)
}

func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case IRNull:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case IRString:
		return marshalCanonicalString(string(val))
	case IRInt:
		return []byte(fmt.Sprintf("%d", val)), nil
	case IRBool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case IRArray:
		return marshalCanonicalArray(val)
	case IRObject:
		return marshalCanonicalObject(val)
	case string:
		return marshalCanonicalString(val)
	case int64:
		return []byte(fmt.Sprintf("%d", val)), nil
	case int:
		return []byte(fmt.Sprintf("%d", val)), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := toIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return marshalCanonicalArray(arr)
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			irElem, err := toIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = irElem
		}
		return marshalCanonicalObject(obj)
	case float64, float32:
		return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// toIRValue converts a bare Go value, as produced by a scenario/compiler
// loader or a harness fixture before it's been typed as IRValue, into the
// sealed IRValue tree MarshalCanonical actually hashes over.
func toIRValue(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden")
	case IRValue:
		return val, nil
	case string:
		return IRString(val), nil
	case int64:
		return IRInt(val), nil
	case int:
		return IRInt(val), nil
	case bool:
		return IRBool(val), nil
	case float64, float32:
		return nil, fmt.Errorf("floats are forbidden")
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := toIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			irElem, err := toIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = irElem
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// marshalCanonicalString encodes a string as canonical JSON: NFC
// normalized, with HTML characters and U+2028/U+2029 left unescaped.
// An event name round-tripped through composed and decomposed Unicode
// forms (e.g. two different byte sequences for "café") must still hash
// identically, which is what the NFC pass buys here.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}

	// Go's encoder still escapes U+2028/U+2029 for JavaScript
	// compatibility; RFC 8785 forbids that, so unescape them back to
	// literal characters without touching a literal " " substring
	// that arrived already escaped in the source string.
	result = unescapeU2028U2029(result)

	return result, nil
}

// unescapeU2028U2029 converts   and   escape sequences to literal characters
// per RFC 8785, but preserves \\u2028/\\u2029 (escaped backslash followed by u2028/u2029).
func unescapeU2028U2029(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	var result []byte
	i := 0
	for i < len(data) {
		if i+6 <= len(data) && data[i] == '\\' && data[i+1] == 'u' && data[i+2] == '2' && data[i+3] == '0' && data[i+4] == '2' {
			if data[i+5] == '8' || data[i+5] == '9' {
				actualBackslashes := 0
				if result == nil {
					for j := i - 1; j >= 0 && data[j] == '\\'; j-- {
						actualBackslashes++
					}
				} else {
					for j := len(result) - 1; j >= 0 && result[j] == '\\'; j-- {
						actualBackslashes++
					}
				}

				// Even backslashes preceding (including zero) means this
				// is a genuine \u202x escape to unescape; odd means the
				// last backslash already escapes it, so leave it alone.
				if actualBackslashes%2 == 0 {
					if result == nil {
						result = make([]byte, 0, len(data))
						result = append(result, data[:i]...)
					}
					if data[i+5] == '8' {
						result = append(result, " "...)
					} else {
						result = append(result, " "...)
					}
					i += 6
					continue
				}
			}
		}

		if result != nil {
			result = append(result, data[i])
		}
		i++
	}

	if result == nil {
		return data
	}
	return result
}

// marshalCanonicalArray marshals an array to canonical JSON.
func marshalCanonicalArray(arr IRArray) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := marshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// marshalCanonicalObject marshals an object to canonical JSON with RFC 8785 key ordering.
func marshalCanonicalObject(obj IRObject) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	keys := obj.SortedKeys()

	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := marshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
