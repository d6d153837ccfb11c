package stager

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mediastage/stagehand/apiexternal"
	"github.com/mediastage/stagehand/view"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

func testState() *view.State {
	state := &view.State{}
	state.Table.SetRows([]view.Row{
		{ID: "a", Title: "Alpha", MediaType: "movie"},
		{ID: "b", Title: "Beta", MediaType: "movie"},
		{ID: "c", Title: "Gamma", MediaType: "series"},
	})
	return state
}

func serverClient(t *testing.T, router *gin.Engine) (apiexternal.ServerClient, func()) {
	t.Helper()
	ts := httptest.NewServer(router)
	apiexternal.NewServerClient(ts.URL, "testkey", 0, 100, 0)
	return apiexternal.ServerApi, ts.Close
}

func waitResult(t *testing.T, done <-chan Result) Result {
	t.Helper()
	select {
	case res := <-done:
		return res
	case <-time.After(3 * time.Second):
		t.Fatal("move task did not finish in time")
		return Result{}
	}
}

func TestMoveSingleCompletes(t *testing.T) {
	var statusCalls int32
	router := gin.New()
	router.POST("/api/media/move", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success", "task_id": "t1"})
	})
	router.GET("/api/media/move_status", func(c *gin.Context) {
		if atomic.AddInt32(&statusCalls, 1) < 3 {
			c.JSON(http.StatusOK, gin.H{"status": "running"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "completed", "message": "moved"})
	})
	router.GET("/api/staging", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success", "files": []gin.H{
			{"id": "b", "name": "Beta.2010.1080p.WEB-DL.x264-TEAM.mkv", "media_type": "movie"},
			{"id": "c", "name": "Gamma.S01E01.720p.HDTV.mkv", "media_type": "series"},
		}})
	})

	srv, closefn := serverClient(t, router)
	defer closefn()

	state := testState()
	state.Selection.Toggle("a", true)
	st := NewStager(srv, state, 10*time.Millisecond, 10*time.Millisecond)

	done, err := st.MoveSingle("a", "movie", "/films")
	if err != nil {
		t.Fatalf("MoveSingle() error = %v", err)
	}
	if !st.Active() {
		t.Error("stager not active while the task runs")
	}
	if st.ActiveMedia() != "a" {
		t.Errorf("ActiveMedia() = %q, want a", st.ActiveMedia())
	}
	if _, errsecond := st.MoveSingle("b", "movie", "/films"); errsecond == nil {
		t.Error("second move while active must be rejected client-side")
	}

	res := waitResult(t, done)
	if res.Failed {
		t.Fatalf("move failed: %s", res.Message)
	}
	if res.Message != "moved" {
		t.Errorf("Message = %q, want server message", res.Message)
	}
	if st.Active() {
		t.Error("stager still active after terminal status")
	}
	if _, ok := state.Table.Find("a"); ok {
		t.Error("moved row still in the table")
	}
	if state.Selection.Count() != 0 {
		t.Errorf("selection count = %d, want 0", state.Selection.Count())
	}
	// refresh repopulated the table from the staging endpoint
	if row, ok := state.Table.Find("b"); !ok || row.Title != "Beta" {
		t.Errorf("refresh did not rebuild the table, got %+v", row)
	}
}

func TestMoveSingleFailureKeepsRows(t *testing.T) {
	router := gin.New()
	router.POST("/api/media/move", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success", "task_id": "t1"})
	})
	router.GET("/api/media/move_status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "failed", "message": "disk full"})
	})

	srv, closefn := serverClient(t, router)
	defer closefn()

	state := testState()
	st := NewStager(srv, state, 10*time.Millisecond, 10*time.Millisecond)

	done, err := st.MoveSingle("a", "movie", "/films")
	if err != nil {
		t.Fatalf("MoveSingle() error = %v", err)
	}
	res := waitResult(t, done)
	if !res.Failed {
		t.Fatal("expected a failed result")
	}
	if res.Message != "disk full" {
		t.Errorf("Message = %q, want the server message verbatim", res.Message)
	}
	if state.Table.Len() != 3 {
		t.Error("failure must leave the table untouched for a retry")
	}
}

func TestMoveSingleMalformedStatusIsTerminal(t *testing.T) {
	var statusCalls int32
	router := gin.New()
	router.POST("/api/media/move", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success", "task_id": "t1"})
	})
	router.GET("/api/media/move_status", func(c *gin.Context) {
		atomic.AddInt32(&statusCalls, 1)
		c.String(http.StatusOK, "<html>oops</html>")
	})

	srv, closefn := serverClient(t, router)
	defer closefn()

	st := NewStager(srv, testState(), 10*time.Millisecond, 10*time.Millisecond)
	done, err := st.MoveSingle("a", "movie", "/films")
	if err != nil {
		t.Fatalf("MoveSingle() error = %v", err)
	}
	res := waitResult(t, done)
	if !res.Failed {
		t.Fatal("malformed status payload must end the session as a failure")
	}
	calls := atomic.LoadInt32(&statusCalls)
	time.Sleep(50 * time.Millisecond)
	if after := atomic.LoadInt32(&statusCalls); after != calls {
		t.Errorf("polling continued after malformed payload: %d extra calls", after-calls)
	}
}

func TestBulkMoveRemovesExactlySuccesses(t *testing.T) {
	router := gin.New()
	router.POST("/api/media/bulk_move", func(c *gin.Context) {
		var payload struct {
			Items []apiexternal.BulkMoveItem `json:"items"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil || len(payload.Items) != 2 {
			c.JSON(http.StatusOK, gin.H{"status": "error", "message": "bad payload"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "task_id": "t9"})
	})
	router.GET("/api/media/bulk_move_status/:taskid", func(c *gin.Context) {
		if c.Param("taskid") != "t9" {
			c.JSON(http.StatusOK, gin.H{"status": "failed", "message": "unknown task"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "completed", "message": "2 items moved", "successes": []string{"a", "c"}})
	})
	router.GET("/api/staging", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success", "files": []gin.H{
			{"id": "b", "name": "Beta.mkv", "media_type": "movie"},
		}})
	})

	srv, closefn := serverClient(t, router)
	defer closefn()

	state := testState()
	state.Selection.Toggle("a", true)
	state.Selection.Toggle("c", true)
	st := NewStager(srv, state, 10*time.Millisecond, 10*time.Millisecond)

	var notified string
	st.Notify = func(message string, title string) { notified = message }

	done, err := st.BulkMove("/archive")
	if err != nil {
		t.Fatalf("BulkMove() error = %v", err)
	}
	res := waitResult(t, done)
	if res.Failed {
		t.Fatalf("bulk move failed: %s", res.Message)
	}
	if len(res.Successes) != 2 {
		t.Errorf("successes = %v, want a and c", res.Successes)
	}
	if _, ok := state.Table.Find("b"); !ok {
		t.Error("unaffected row b was removed")
	}
	if _, ok := state.Table.Find("a"); ok {
		t.Error("moved row a still present")
	}
	if state.Selection.Count() != 0 {
		t.Errorf("selection count = %d, want 0 after bulk completion", state.Selection.Count())
	}
	if notified != "2 items moved" {
		t.Errorf("notification = %q, want the task summary", notified)
	}
}

func TestBulkMoveLaunchRejected(t *testing.T) {
	router := gin.New()
	router.POST("/api/media/bulk_move", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": "another move is running"})
	})

	srv, closefn := serverClient(t, router)
	defer closefn()

	state := testState()
	state.Selection.Toggle("a", true)
	st := NewStager(srv, state, 10*time.Millisecond, 10*time.Millisecond)

	if _, err := st.BulkMove("/archive"); err == nil {
		t.Fatal("server rejection must surface as an error")
	} else if err.Error() != "another move is running" {
		t.Errorf("error = %q, want the server message verbatim", err.Error())
	}
	if st.Active() {
		t.Error("no poller may be live after a rejected launch")
	}
}

func TestBulkMoveEmptySelection(t *testing.T) {
	srv := apiexternal.ServerClient{}
	st := NewStager(srv, testState(), 10*time.Millisecond, 10*time.Millisecond)
	if _, err := st.BulkMove("/archive"); err == nil {
		t.Fatal("empty selection must be rejected before any request")
	}
}
