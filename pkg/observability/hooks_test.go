package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnLoadStart(ctx, "neo4j")
	p.OnLoadComplete(ctx, "neo4j", 100, 250, time.Second, nil)
	p.OnAnalysisStart(ctx, "trace", 100)
	p.OnAnalysisComplete(ctx, "trace", time.Second, nil)
	p.OnRenderStart(ctx, []string{"xlsx"})
	p.OnRenderComplete(ctx, []string{"xlsx"}, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "graph")
	c.OnCacheMiss(ctx, "result")
	c.OnCacheSet(ctx, "artifact", 1024)

	d := NoopDatabaseHooks{}
	d.OnQuery(ctx, "neo4j", "MATCH (n) RETURN n")
	d.OnQueryComplete(ctx, "neo4j", 10, time.Millisecond, nil)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/analyses")
	h.OnResponse(ctx, "POST", "/v1/analyses", 201, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Database().(NoopDatabaseHooks); !ok {
		t.Error("Database() should return NoopDatabaseHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customDB := &testDatabaseHooks{}
	SetDatabaseHooks(customDB)
	if Database() != customDB {
		t.Error("SetDatabaseHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Database().(NoopDatabaseHooks); !ok {
		t.Error("Reset() should restore NoopDatabaseHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	Reset()
}

type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testDatabaseHooks struct{ NoopDatabaseHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
