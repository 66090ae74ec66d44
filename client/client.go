// Package client provides an HTTP client for the Todo service under test.
//
// Every operation returns the raw outcome (status code, headers, body) rather
// than interpreting it, because many tests deliberately provoke error
// responses and assert on the exact status. Decoding helpers on Response
// parse the body on demand.
package client

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alessio/shellescape"

	"github.com/todoapp/todo-contract-tests/framework"
)

const todosPath = "/todos"
const defaultRequestTimeout = time.Second * 10

// TodoServiceClient manages communication with the Todo service. It is safe
// for concurrent use; the concurrency checks issue requests from several
// goroutines through a single client.
type TodoServiceClient struct {
	config     ServiceConfig
	httpClient *http.Client
	logger     framework.Logger
}

// Response is the observed outcome of one request to the Todo service.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Todos decodes the response body as a list of Todo entities.
func (r *Response) Todos() ([]Todo, error) {
	var todos []Todo
	if err := json.Unmarshal(r.Body, &todos); err != nil {
		return nil, fmt.Errorf("malformed todo list in response body %q: %w", string(r.Body), err)
	}
	return todos, nil
}

// Todo decodes the response body as a single Todo entity.
func (r *Response) Todo() (Todo, error) {
	var todo Todo
	if err := json.Unmarshal(r.Body, &todo); err != nil {
		return Todo{}, fmt.Errorf("malformed todo in response body %q: %w", string(r.Body), err)
	}
	return todo, nil
}

// NewTodoServiceClient creates a client for the service described by config.
// Request/response details are written to the logger, which tests normally
// point at their captured debug output.
func NewTodoServiceClient(config ServiceConfig, logger framework.Logger) *TodoServiceClient {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &TodoServiceClient{
		config:     config,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     logger,
	}
}

// Config returns the configuration the client was constructed with.
func (c *TodoServiceClient) Config() ServiceConfig { return c.config }

// WaitForService polls the service until it answers the list endpoint, so a
// test run does not start before the service is ready. It reports progress
// dots to output if output is non-nil.
func (c *TodoServiceClient) WaitForService(timeout time.Duration, output io.Writer) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		if output != nil {
			fmt.Fprintf(output, ".")
		}
		resp, err := c.GetTodos()
		if err == nil && resp.StatusCode == http.StatusOK {
			return nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("service returned status %d", resp.StatusCode)
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("timed out waiting for Todo service at %s; last result: %w",
				c.config.BaseURL, lastErr)
		}
		time.Sleep(time.Millisecond * 100)
	}
}

// GetTodos lists all todos.
func (c *TodoServiceClient) GetTodos() (*Response, error) {
	return c.do("GET", todosPath, nil, nil, "")
}

// GetTodosPage lists todos with offset/limit query parameters.
func (c *TodoServiceClient) GetTodosPage(offset, limit int) (*Response, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))
	return c.do("GET", todosPath, query, nil, "")
}

// GetTodo fetches a single todo by id.
func (c *TodoServiceClient) GetTodo(id int64) (*Response, error) {
	return c.do("GET", todoPath(id), nil, nil, "")
}

// CreateTodo creates a well-formed todo.
func (c *TodoServiceClient) CreateTodo(todo Todo) (*Response, error) {
	return c.do("POST", todosPath, nil, todo, "")
}

// CreateTodoFields creates a todo from a loose field set, allowing missing or
// wrong-typed properties.
func (c *TodoServiceClient) CreateTodoFields(fields TodoFields) (*Response, error) {
	return c.do("POST", todosPath, nil, fields, "")
}

// UpdateTodo replaces the todo at pathID with a well-formed body. The body's
// own id is whatever todo.ID says, which tests use to probe mismatched-id
// handling.
func (c *TodoServiceClient) UpdateTodo(pathID int64, todo Todo) (*Response, error) {
	return c.do("PUT", todoPath(pathID), nil, todo, "")
}

// UpdateTodoFields replaces the todo at pathID with a loose field set.
func (c *TodoServiceClient) UpdateTodoFields(pathID int64, fields TodoFields) (*Response, error) {
	return c.do("PUT", todoPath(pathID), nil, fields, "")
}

// DeleteTodo deletes a todo using the configured admin credentials.
func (c *TodoServiceClient) DeleteTodo(id int64) (*Response, error) {
	return c.do("DELETE", todoPath(id), nil, nil, basicAuth(c.config.User, c.config.Password))
}

// DeleteTodoWithCredentials deletes a todo using explicit credentials, for
// tests that probe authorization handling.
func (c *TodoServiceClient) DeleteTodoWithCredentials(id int64, user, password string) (*Response, error) {
	return c.do("DELETE", todoPath(id), nil, nil, basicAuth(user, password))
}

// DeleteTodoNoAuth deletes a todo without any Authorization header.
func (c *TodoServiceClient) DeleteTodoNoAuth(id int64) (*Response, error) {
	return c.do("DELETE", todoPath(id), nil, nil, "")
}

// DeleteAll removes every todo currently in the service. Tests call this
// before and after running so each starts from a clean slate.
func (c *TodoServiceClient) DeleteAll() error {
	resp, err := c.GetTodos()
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("could not list todos for cleanup: status %d", resp.StatusCode)
	}
	todos, err := resp.Todos()
	if err != nil {
		return err
	}
	for _, todo := range todos {
		deleteResp, err := c.DeleteTodo(todo.ID)
		if err != nil {
			return err
		}
		if deleteResp.StatusCode != http.StatusNoContent {
			return fmt.Errorf("could not delete todo %d during cleanup: status %d",
				todo.ID, deleteResp.StatusCode)
		}
	}
	return nil
}

func (c *TodoServiceClient) do(
	method string,
	path string,
	query url.Values,
	body interface{},
	authorization string,
) (*Response, error) {
	requestURL := c.config.BaseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyData []byte
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyData = data
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, requestURL, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if bodyData != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	c.logger.Printf("%s", curlCommand(req, bodyData))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	var respBody []byte
	if resp.Body != nil {
		respBody, err = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, err
		}
	}
	c.logger.Printf("Received %d: %s", resp.StatusCode, string(respBody))

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

func todoPath(id int64) string {
	return fmt.Sprintf("%s/%d", todosPath, id)
}

func basicAuth(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}

// curlCommand renders a request as an equivalent curl invocation, so a
// failing request in the debug log can be replayed by hand.
func curlCommand(req *http.Request, body []byte) string {
	args := []string{"curl", "-X", req.Method}
	for name, values := range req.Header {
		for _, value := range values {
			args = append(args, "-H", name+": "+value)
		}
	}
	if body != nil {
		args = append(args, "-d", string(body))
	}
	args = append(args, req.URL.String())

	quoted := make([]string, 0, len(args))
	for _, a := range args {
		quoted = append(quoted, shellescape.Quote(a))
	}
	return strings.Join(quoted, " ")
}
