package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/hunchagency/dot/internal/domain/activity"
	"github.com/hunchagency/dot/internal/domain/allocation"
	"github.com/hunchagency/dot/internal/domain/job"
	"github.com/hunchagency/dot/internal/domain/lifecycle"
	"github.com/hunchagency/dot/internal/domain/routing"
	"github.com/hunchagency/dot/internal/mcp"
	"github.com/hunchagency/dot/internal/oracle"
	"github.com/hunchagency/dot/internal/prompts"
	"github.com/hunchagency/dot/internal/sqlite"
	"github.com/hunchagency/dot/internal/transport"
)

// Seeded clients.
var (
	ClientOne = job.Client{Code: "ONE", Name: "One NZ", TeamsChannelRef: "chan-one", DocumentRootRef: "https://sp/one", NextSequence: 125}
	ClientTow = job.Client{Code: "TOW", Name: "Tower", TeamsChannelRef: "chan-tow", DocumentRootRef: "https://sp/tow", NextSequence: 23}
)

const Version = "test"

type TestServer struct {
	Server     *httptest.Server
	DB         *sqlite.DB
	Store      *sqlite.Store
	Activity   *activity.Service
	Classifier *ScriptedClassifier
	Token      string
}

// New starts the full HTTP surface over an in-memory SQLite registry and a
// scripted classifier. An empty token disables auth.
func New(t *testing.T, token string) *TestServer {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	store := sqlite.NewStore(db, nil)
	require.NoError(t, store.SeedClient(ctx, ClientOne))
	require.NoError(t, store.SeedClient(ctx, ClientTow))

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)
	classifier := NewScriptedClassifier()
	promptSet := prompts.Default()

	allocator := allocation.NewAllocator(store, allocation.DefaultPolicy(), nil)
	routerSvc := routing.NewService(store, classifier, promptSet.RoutingIntent(), routing.DefaultDomains(), nil)
	lifecycleSvc := lifecycle.NewService(store, classifier, allocator, lifecycle.Intents{
		Triage:   promptSet.TriageIntent(),
		Update:   promptSet.UpdateIntent(),
		Dispatch: promptSet.DispatchIntent(),
	}, nil, lifecycle.WithAudit(activitySvc))

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{Router: routerSvc, Lifecycle: lifecycleSvc, Activity: activitySvc},
		Version:  Version,
	})
	opts := transport.Options{MCP: mcp.NewHTTPHandler(mcpServer), Version: Version}
	if token != "" {
		opts.Auth = transport.AuthMiddleware(transport.StaticToken(token))
	}
	server := httptest.NewServer(transport.NewServer(routerSvc, lifecycleSvc, opts))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:     server,
		DB:         db,
		Store:      store,
		Activity:   activitySvc,
		Classifier: classifier,
		Token:      token,
	}
}

// Post sends body as JSON with the server's bearer token and decodes the
// JSON response.
func (ts *TestServer) Post(t *testing.T, path string, body any) (int, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if ts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.Token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

// MCPSession connects an MCP client to /mcp over streamable HTTP.
func (ts *TestServer) MCPSession(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()
	httpClient := &http.Client{Transport: bearerTransport{token: ts.Token, base: http.DefaultTransport}}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: httpClient,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if b.token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	return b.base.RoundTrip(req)
}

// Call is one classification request seen by a ScriptedClassifier.
type Call struct {
	Intent   string
	Document string
}

type scriptedReply struct {
	doc map[string]any
	err error
}

// ScriptedClassifier answers classification requests from per-intent
// queues, in order.
type ScriptedClassifier struct {
	mu      sync.Mutex
	replies map[string][]scriptedReply
	calls   []Call
}

func NewScriptedClassifier() *ScriptedClassifier {
	return &ScriptedClassifier{replies: map[string][]scriptedReply{}}
}

// Push queues a reply for the named intent.
func (c *ScriptedClassifier) Push(intent string, doc map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies[intent] = append(c.replies[intent], scriptedReply{doc: doc})
}

// PushError queues a failure for the named intent.
func (c *ScriptedClassifier) PushError(intent string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies[intent] = append(c.replies[intent], scriptedReply{err: err})
}

// Calls returns the requests seen so far.
func (c *ScriptedClassifier) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

func (c *ScriptedClassifier) Classify(_ context.Context, intent oracle.Intent, document string) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Intent: intent.Name, Document: document})

	queue := c.replies[intent.Name]
	if len(queue) == 0 {
		return nil, fmt.Errorf("%w: no scripted reply for %s", oracle.ErrTransport, intent.Name)
	}
	next := queue[0]
	c.replies[intent.Name] = queue[1:]
	return next.doc, next.err
}
