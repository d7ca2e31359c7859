package scanner_test

import (
	"testing"

	"gotest.tools/assert"

	. "github.com/fortrec/fortrec/internal/scanner"
)

const p41_source = `PROGRAM p41
!-------------------------------------------------------------------------
! Program 4.1 one dimensional analysis of axially loaded elastic rods
!-------------------------------------------------------------------------
 USE main
 IMPLICIT NONE
 READ(10,*)nels,np_types
 READ(10,*)prop(1:np_types)
 read(10,*)etype ! overridden when np_types is one
 READ(10,*)ell,nr
 READ(10,*)(k,nf(:,k),i=1,nr)
 READ(10,*)loaded_nodes,(k,loads(k),i=1,loaded_nodes)
 READ(10,*)fixed_freedoms
 IF(fixed_freedoms/=0)READ(10,*)(node(i),value(i),i=1,fixed_freedoms)
END PROGRAM p41`

func TestScan(t *testing.T) {
	res := Scan(p41_source, Options{})

	assert.Equal(t, len(res), 8)

	assert.Equal(t, res[0].LineNumber, 7)
	assert.DeepEqual(t, res[0].Variables, []string{"nels", "np_types"})

	// lower-case read and trailing comment
	assert.DeepEqual(t, res[2].Variables, []string{"etype"})

	// implied loop stays one variable
	assert.DeepEqual(t, res[4].Variables, []string{"(k,nf(:,k),i=1,nr)"})

	assert.DeepEqual(t, res[5].Variables, []string{"loaded_nodes", "(k,loads(k),i=1,loaded_nodes)"})
}

func TestScanConditional(t *testing.T) {
	res := Scan(p41_source, Options{})

	last := res[7]
	assert.Equal(t, last.IsConditional, true)
	assert.Equal(t, last.ConditionText, "fixed_freedoms/=0")
	assert.Equal(t, res[6].IsConditional, false)
}

func TestScanChannel(t *testing.T) {
	source := "READ(10,*)a\nREAD(11,*)b\n"

	res := Scan(source, Options{})
	assert.Equal(t, len(res), 1)
	assert.DeepEqual(t, res[0].Variables, []string{"a"})

	res = Scan(source, Options{Channel: "11"})
	assert.Equal(t, len(res), 1)
	assert.DeepEqual(t, res[0].Variables, []string{"b"})
}

func TestScanStatementLabel(t *testing.T) {
	res := Scan("100 READ(10,*)limit,tol\n", Options{})
	assert.Equal(t, len(res), 1)
	assert.DeepEqual(t, res[0].Variables, []string{"limit", "tol"})
}

func TestScanMalformed(t *testing.T) {
	res := Scan("READ(10,*)(k,nf(:,k,i=1,nr\n", Options{})

	// the descriptor survives, flagged and with no variables
	assert.Equal(t, len(res), 1)
	assert.Equal(t, len(res[0].Variables), 0)
	assert.Equal(t, res[0].Malformed, true)
}

func TestSplitVariables(t *testing.T) {
	vars, err := SplitVariables("ell,nr")
	assert.NilError(t, err)
	assert.DeepEqual(t, vars, []string{"ell", "nr"})

	vars, err = SplitVariables("loaded_nodes,(k,loads(k),i=1,loaded_nodes)")
	assert.NilError(t, err)
	assert.Equal(t, len(vars), 2)

	_, err = SplitVariables("a,b)")
	assert.Assert(t, err != nil)
}
