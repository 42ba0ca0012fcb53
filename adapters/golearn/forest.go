package golearn

import (
	"math"
	"math/rand"
	"sort"

	"github.com/sjwhitworth/golearn/trees"

	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
	"github.com/wdm0006/rangerimpute/pkg/learner"
)

// anchor is the first column of every grid a Tree builds. golearn routes a
// root it could not split on feature 0 against threshold 0 and leaves the
// right-hand prediction unset, so a constant negative first column sends
// every row to the node's mode or mean.
const anchor = -1

// Tree is one golearn CART tree over a feature subset drawn from its seed.
// Classification targets grow a gini tree over class codes, everything else
// an MSE regression tree. The split search itself draws nothing, so a tree
// is fully determined by its seed and sample.
type Tree struct {
	Features []int
	Depth    int64

	classes []int64
	schema  *Schema
	clf     *trees.CARTDecisionTreeClassifier
	reg     *trees.CARTDecisionTreeRegressor
}

// NewTree is a learner.Factory. It reads "mtry" (default floor(sqrt(p)),
// clamped to [1, p]) and "max.depth" (default 10; zero or less grows until
// pure).
func NewTree(t learner.Task, seed int64) (learner.Estimator, error) {
	p := 0
	if len(t.X) > 0 {
		p = len(t.X[0])
	}
	if p == 0 {
		return nil, ierr.Newf("forest %s: no predictors", t.Target)
	}
	mtry := t.Params.Int("mtry", int(math.Sqrt(float64(p))))
	if mtry < 1 {
		mtry = 1
	}
	if mtry > p {
		mtry = p
	}
	subset := rand.New(rand.NewSource(seed)).Perm(p)[:mtry]
	sort.Ints(subset)

	depth := int64(t.Params.Int("max.depth", 10))
	if depth < 1 {
		depth = -1
	}
	tr := &Tree{Features: subset, Depth: depth, schema: NewFloatSchema(mtry + 1)}
	if t.Tag.Classification() {
		classes := t.Classes
		for _, y := range t.Y {
			if int(y)+1 > classes {
				classes = int(y) + 1
			}
		}
		tr.classes = make([]int64, classes)
		for c := range tr.classes {
			tr.classes[c] = int64(c)
		}
	}
	return tr, nil
}

// project keeps the chosen features behind the anchor column.
func (tr *Tree) project(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		r := make([]float64, len(tr.Features)+1)
		r[0] = anchor
		for j, f := range tr.Features {
			if f < len(row) {
				r[j+1] = row[f]
			}
		}
		out[i] = r
	}
	return out
}

func (tr *Tree) Fit(x [][]float64, y []float64) (err error) {
	defer ierr.Recover("golearn.CART.Fit", &err)
	if len(x) == 0 {
		return ierr.New("forest: no training rows")
	}
	inst, err := tr.schema.ToDenseInstances(tr.project(x), y)
	if err != nil {
		return err
	}
	if tr.classes != nil {
		tr.clf = trees.NewDecisionTreeClassifier("gini", tr.Depth, tr.classes)
		return tr.clf.Fit(inst)
	}
	tr.reg = trees.NewDecisionTreeRegressor(trees.MSE, tr.Depth)
	return tr.reg.Fit(inst)
}

func (tr *Tree) Predict(x [][]float64) (out []float64, err error) {
	defer ierr.Recover("golearn.CART.Predict", &err)
	if tr.clf == nil && tr.reg == nil {
		return nil, ierr.New("forest: predict before fit")
	}
	if len(x) == 0 {
		return []float64{}, nil
	}
	inst, err := tr.schema.ToDenseInstances(tr.project(x), nil)
	if err != nil {
		return nil, err
	}
	if tr.reg != nil {
		return tr.reg.Predict(inst), nil
	}
	codes := tr.clf.Predict(inst)
	out = make([]float64, len(codes))
	for i, c := range codes {
		out[i] = float64(c)
	}
	return out, nil
}

// BaggedForest is the default learner for every target kind: golearn CART
// trees as bootstrap replicates, which gives the out-of-bag error golearn
// lacks. Each replicate's seed comes from the task seed, so a run is
// reproducible.
func BaggedForest() learner.Learner {
	return learner.Bootstrap{New: NewTree}
}
