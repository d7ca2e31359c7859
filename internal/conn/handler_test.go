package conn_test

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/assert"

	. "github.com/fortrec/fortrec/internal/conn"
	"github.com/fortrec/fortrec/internal/runner"
)

func TestDispatchUnknownAction(t *testing.T) {
	s := NewService("", runner.Options{})

	res := s.Dispatch([]byte(`{"action":"drop"}`))
	assert.Equal(t, res.Status, http.StatusBadRequest)

	res = s.Dispatch([]byte(`not json`))
	assert.Equal(t, res.Status, http.StatusBadRequest)
}

func TestScanReqHandler(t *testing.T) {
	s := NewService("", runner.Options{})

	res := s.Dispatch([]byte(`{"action":"scan","source":"READ(10,*)nels,np_types\nIF(n/=0)READ(10,*)x"}`))
	assert.Equal(t, res.Status, http.StatusOK)

	data := res.Data.([]map[string]any)
	assert.Equal(t, len(data), 2)
	assert.Equal(t, data[0]["line"], 1)
	assert.Equal(t, data[1]["condition"], "n/=0")
}

func TestExtractReqHandler(t *testing.T) {
	s := NewService("", runner.Options{})

	req := `{"action":"extract","caseId":"adhoc_p41",` +
		`"source":"READ(10,*)ell,nr\nREAD(10,*)(k,nf(:,k),i=1,nr)",` +
		`"dataset":"1.25 2\n1 0 1\n6 1 0"}`
	res := s.Dispatch([]byte(req))
	assert.Equal(t, res.Status, http.StatusOK)

	result := res.Data.(ExtractResult)
	assert.Equal(t, result.Incomplete, false)
	assert.Equal(t, len(result.Unresolved), 0)
	assert.Assert(t, strings.Contains(result.Yaml, "id: adhoc_p41"))
	assert.Assert(t, strings.Contains(result.Yaml, "bc_table"))
}

func TestExtractReqHandlerPartial(t *testing.T) {
	s := NewService("", runner.Options{})

	req := `{"action":"extract","source":"READ(10,*)a,b\nREAD(10,*)c","dataset":"1 2"}`
	res := s.Dispatch([]byte(req))
	assert.Equal(t, res.Status, http.StatusOK)

	result := res.Data.(ExtractResult)
	assert.Equal(t, result.Incomplete, true)
	assert.DeepEqual(t, result.Unresolved, []string{"c"})
	assert.Assert(t, strings.Contains(result.Yaml, "id: adhoc"))
}

func TestListCasesReqHandler(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"executable/chap04", "source/chap04"} {
		assert.NilError(t, os.MkdirAll(filepath.Join(root, rel), 0o755))
	}
	assert.NilError(t, os.WriteFile(filepath.Join(root, "executable/chap04/p41_1.dat"), []byte("4 2\n"), 0o644))
	assert.NilError(t, os.WriteFile(filepath.Join(root, "source/chap04/p41.f03"), []byte("READ(10,*)nels\n"), 0o644))

	s := NewService(root, runner.Options{})

	res := s.Dispatch([]byte(`{"action":"listCases"}`))
	assert.Equal(t, res.Status, http.StatusOK)
	assert.DeepEqual(t, res.Data.([]string), []string{"pfem5_ch04_p41_p41_1"})

	res = s.Dispatch([]byte(`{"action":"listCases","chapter":"chap04"}`))
	assert.Equal(t, res.Status, http.StatusOK)
	assert.DeepEqual(t, res.Data.([]string), []string{"pfem5_ch04_p41_p41_1"})
}
