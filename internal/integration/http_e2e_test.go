//go:build integration

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"spot_rental/internal/adapters/auth"
	server "spot_rental/internal/adapters/http_server"
	redisad "spot_rental/internal/adapters/redis"
	"spot_rental/internal/app"
	mysqlrepo "spot_rental/internal/storage/mysql"
)

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	// Start isolated MySQL container
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=spots",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/spots?parseTime=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := mysqlrepo.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newStack wires the real router over MySQL and an in-process redis.
func newStack(t *testing.T) *httptest.Server {
	t.Helper()
	repo := mysqlrepo.New(startMySQL(t))
	rdb := redisad.NewClient(miniredis.RunT(t).Addr(), "", 0)
	t.Cleanup(func() { _ = rdb.Close() })
	cache := redisad.New(rdb)
	sessions := app.NewSessionService(repo, bcrypt.MinCost)

	srv := server.New(server.Options{Timeout: 10 * time.Second})
	srv.MountHandlers(&server.Handlers{
		Q:    app.NewQueryService(repo, cache, time.Minute),
		C:    app.NewCommandService(repo, cache, time.Minute),
		S:    sessions,
		Auth: server.NewAuthenticator(auth.NewTokens("e2e-secret", time.Hour), redisad.NewDenylist(rdb), sessions, false),
	})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func send(t *testing.T, c *http.Client, method, url string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := c.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res.StatusCode, out
}

func signup(t *testing.T, ts *httptest.Server, username string) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	c := &http.Client{Jar: jar}
	code, body := send(t, c, http.MethodPost, ts.URL+"/api/users", map[string]any{
		"firstName": "F", "lastName": "L",
		"email": username + "@example.com", "username": username, "password": "password",
	})
	require.Equal(t, http.StatusCreated, code, body)
	return c
}

func TestHTTP_EndToEnd_SpotLifecycle(t *testing.T) {
	ts := newStack(t)
	owner := signup(t, ts, "owner")
	guest := signup(t, ts, "guest")

	code, spot := send(t, owner, http.MethodPost, ts.URL+"/api/spots", map[string]any{
		"address": "123 Disney Lane", "city": "San Francisco", "state": "California",
		"country": "United States of America", "lat": 37.7645358, "lng": -122.4730327,
		"name": "App Academy", "description": "Place where web developers are created", "price": 123,
	})
	require.Equal(t, http.StatusCreated, code, spot)
	id := int64(spot["id"].(float64))

	code, detail := send(t, http.DefaultClient, http.MethodGet, fmt.Sprintf("%s/api/spots/%d", ts.URL, id), nil)
	require.Equal(t, http.StatusOK, code)
	require.EqualValues(t, 0, detail["numReviews"])
	require.Nil(t, detail["avgStarRating"])

	// concurrent duplicates: exactly one succeeds
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[int]int{}
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, _ := send(t, guest, http.MethodPost, fmt.Sprintf("%s/api/spots/%d/reviews", ts.URL, id),
				map[string]any{"review": "Great", "stars": 4})
			mu.Lock()
			codes[c]++
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.Equal(t, 1, codes[http.StatusCreated], codes)
	require.Equal(t, 5, codes[http.StatusForbidden], codes)

	code, detail = send(t, http.DefaultClient, http.MethodGet, fmt.Sprintf("%s/api/spots/%d", ts.URL, id), nil)
	require.Equal(t, http.StatusOK, code)
	require.EqualValues(t, 1, detail["numReviews"])
	require.EqualValues(t, 4, detail["avgStarRating"])

	code, _ = send(t, owner, http.MethodDelete, fmt.Sprintf("%s/api/spots/%d", ts.URL, id), nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = send(t, http.DefaultClient, http.MethodGet, fmt.Sprintf("%s/api/spots/%d/reviews", ts.URL, id), nil)
	require.Equal(t, http.StatusNotFound, code)
}
