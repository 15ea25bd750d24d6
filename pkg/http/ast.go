package http

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/shapestone/shape-core/pkg/ast"
)

var zeroPos = ast.Position{}

// Parse parses one complete request from wire-format input into a
// shape-core AST. The input must hold exactly one request: a valid
// prefix of a longer request is ErrIncomplete, and bytes left over after
// the request are ErrTrailingBytes.
//
// The resulting ObjectNode has the shape
//
//	{ "type": "request", "method": "GET", "path": "/api",
//	  "query": "page=2", "version": "HTTP/1.1",
//	  "headers": [{"key": "Host", "value": "example.com"}, ...],
//	  "body": "..." }
//
// with "query" and "body" present only when non-empty.
func Parse(input string) (ast.SchemaNode, error) {
	req, n, err := ParseRequest([]byte(input))
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrIncomplete
	}
	if n != len(input) {
		return nil, ErrTrailingBytes
	}
	return RequestToNode(req), nil
}

// ParseReader reads all data from r and parses it as one request into an AST.
func ParseReader(r io.Reader) (ast.SchemaNode, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// readAll reads all data from r.
func readAll(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(r)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RequestToNode converts a Request to an AST ObjectNode.
func RequestToNode(req *Request) ast.SchemaNode {
	props := map[string]ast.SchemaNode{
		"type":    ast.NewLiteralNode("request", zeroPos),
		"method":  ast.NewLiteralNode(req.Method.String(), zeroPos),
		"path":    ast.NewLiteralNode(req.Path, zeroPos),
		"version": ast.NewLiteralNode(req.Version.String(), zeroPos),
		"headers": headersToNode(req.Headers),
	}
	if req.Query != "" {
		props["query"] = ast.NewLiteralNode(req.Query, zeroPos)
	}
	if req.Body != nil {
		props["body"] = ast.NewLiteralNode(string(req.Body), zeroPos)
	}
	return ast.NewObjectNode(props, zeroPos)
}

// ResponseToNode converts a Response to an AST ObjectNode.
func ResponseToNode(resp *Response) ast.SchemaNode {
	props := map[string]ast.SchemaNode{
		"type":       ast.NewLiteralNode("response", zeroPos),
		"version":    ast.NewLiteralNode(resp.Version.String(), zeroPos),
		"statusCode": ast.NewLiteralNode(int64(resp.StatusCode), zeroPos),
		"reason":     ast.NewLiteralNode(resp.Reason, zeroPos),
		"headers":    headersToNode(resp.Headers),
	}
	if resp.Body != nil {
		props["body"] = ast.NewLiteralNode(string(resp.Body), zeroPos)
	}
	return ast.NewObjectNode(props, zeroPos)
}

func headersToNode(headers Headers) ast.SchemaNode {
	elements := make([]ast.SchemaNode, len(headers))
	for i, h := range headers {
		elements[i] = ast.NewObjectNode(map[string]ast.SchemaNode{
			"key":   ast.NewLiteralNode(h.Key, zeroPos),
			"value": ast.NewLiteralNode(h.Value, zeroPos),
		}, zeroPos)
	}
	return ast.NewArrayDataNode(elements, zeroPos)
}

// NodeToRequest converts an AST ObjectNode back to a Request. The
// method and version properties must name members of the closed sets;
// method, path, and version are required.
func NodeToRequest(node ast.SchemaNode) (*Request, error) {
	obj, ok := node.(*ast.ObjectNode)
	if !ok {
		return nil, fmt.Errorf("http: expected ObjectNode, got %T", node)
	}

	props := obj.Properties()
	req := &Request{}

	methodStr, err := stringProp(props, "method")
	if err != nil {
		return nil, err
	}
	method, ok := ParseMethod([]byte(methodStr))
	if !ok {
		return nil, fmt.Errorf("http: node method %q is not a supported method", methodStr)
	}
	req.Method = method

	req.Path, err = stringProp(props, "path")
	if err != nil {
		return nil, err
	}

	versionStr, err := stringProp(props, "version")
	if err != nil {
		return nil, err
	}
	version, ok := ParseVersion([]byte(versionStr))
	if !ok {
		return nil, fmt.Errorf("http: node version %q is not a supported version", versionStr)
	}
	req.Version = version

	if v, ok := props["query"]; ok {
		if lit, ok := v.(*ast.LiteralNode); ok {
			req.Query, _ = lit.Value().(string)
		}
	}
	if v, ok := props["headers"]; ok {
		hdrs, err := nodeToHeaders(v)
		if err != nil {
			return nil, err
		}
		req.Headers = hdrs
	}
	if v, ok := props["body"]; ok {
		if lit, ok := v.(*ast.LiteralNode); ok {
			if s, ok := lit.Value().(string); ok {
				req.Body = []byte(s)
			}
		}
	}

	return req, nil
}

// NodeToResponse converts an AST ObjectNode back to a Response.
func NodeToResponse(node ast.SchemaNode) (*Response, error) {
	obj, ok := node.(*ast.ObjectNode)
	if !ok {
		return nil, fmt.Errorf("http: expected ObjectNode, got %T", node)
	}

	props := obj.Properties()
	resp := &Response{}

	if v, ok := props["version"]; ok {
		if lit, ok := v.(*ast.LiteralNode); ok {
			if s, ok := lit.Value().(string); ok {
				version, ok := ParseVersion([]byte(s))
				if !ok {
					return nil, fmt.Errorf("http: node version %q is not a supported version", s)
				}
				resp.Version = version
			}
		}
	}
	if v, ok := props["statusCode"]; ok {
		if lit, ok := v.(*ast.LiteralNode); ok {
			switch code := lit.Value().(type) {
			case int64:
				resp.StatusCode = int(code)
			case float64:
				resp.StatusCode = int(code)
			case string:
				resp.StatusCode, _ = strconv.Atoi(code)
			}
		}
	}
	if v, ok := props["reason"]; ok {
		if lit, ok := v.(*ast.LiteralNode); ok {
			resp.Reason, _ = lit.Value().(string)
		}
	}
	if v, ok := props["headers"]; ok {
		hdrs, err := nodeToHeaders(v)
		if err != nil {
			return nil, err
		}
		resp.Headers = hdrs
	}
	if v, ok := props["body"]; ok {
		if lit, ok := v.(*ast.LiteralNode); ok {
			if s, ok := lit.Value().(string); ok {
				resp.Body = []byte(s)
			}
		}
	}

	return resp, nil
}

func stringProp(props map[string]ast.SchemaNode, name string) (string, error) {
	v, ok := props[name]
	if !ok {
		return "", fmt.Errorf("http: node missing %q property", name)
	}
	lit, ok := v.(*ast.LiteralNode)
	if !ok {
		return "", fmt.Errorf("http: node property %q is not a literal", name)
	}
	s, ok := lit.Value().(string)
	if !ok {
		return "", fmt.Errorf("http: node property %q is not a string", name)
	}
	return s, nil
}

func nodeToHeaders(node ast.SchemaNode) (Headers, error) {
	arr, ok := node.(*ast.ArrayDataNode)
	if !ok {
		return nil, fmt.Errorf("http: expected ArrayDataNode for headers, got %T", node)
	}

	elements := arr.Elements()
	headers := make(Headers, 0, len(elements))
	for _, elem := range elements {
		obj, ok := elem.(*ast.ObjectNode)
		if !ok {
			continue
		}
		props := obj.Properties()
		var h Header
		if v, ok := props["key"]; ok {
			if lit, ok := v.(*ast.LiteralNode); ok {
				h.Key, _ = lit.Value().(string)
			}
		}
		if v, ok := props["value"]; ok {
			if lit, ok := v.(*ast.LiteralNode); ok {
				h.Value, _ = lit.Value().(string)
			}
		}
		headers = append(headers, h)
	}

	return headers, nil
}

// Render converts an AST node (from Parse, RequestToNode, or
// ResponseToNode) back to HTTP wire-format bytes.
//
// The node must be an ObjectNode with a "type" property of "request" or
// "response".
func Render(node ast.SchemaNode) ([]byte, error) {
	obj, ok := node.(*ast.ObjectNode)
	if !ok {
		return nil, fmt.Errorf("http: Render: expected ObjectNode, got %T", node)
	}

	props := obj.Properties()
	typeProp, ok := props["type"]
	if !ok {
		return nil, fmt.Errorf("http: Render: missing 'type' property")
	}

	typeLit, ok := typeProp.(*ast.LiteralNode)
	if !ok {
		return nil, fmt.Errorf("http: Render: 'type' is not a literal")
	}

	msgType, ok := typeLit.Value().(string)
	if !ok {
		return nil, fmt.Errorf("http: Render: 'type' is not a string")
	}

	switch msgType {
	case "request":
		req, err := NodeToRequest(node)
		if err != nil {
			return nil, fmt.Errorf("http: Render: %w", err)
		}
		return Marshal(req)

	case "response":
		resp, err := NodeToResponse(node)
		if err != nil {
			return nil, fmt.Errorf("http: Render: %w", err)
		}
		return Marshal(resp)

	default:
		return nil, fmt.Errorf("http: Render: unknown message type %q", msgType)
	}
}
