package golearn

import (
	"context"
	"testing"

	"github.com/sjwhitworth/golearn/base"
	"github.com/smartystreets/goconvey/convey"

	"github.com/wdm0006/rangerimpute/pkg/learner"
	"github.com/wdm0006/rangerimpute/pkg/types"
)

func separable() ([][]float64, []float64) {
	var x [][]float64
	var y []float64
	for i := 0; i < 60; i++ {
		v := float64(i % 30)
		x = append(x, []float64{v, float64(i % 3)})
		if v < 15 {
			y = append(y, 0)
		} else {
			y = append(y, 1)
		}
	}
	return x, y
}

func TestSchemaRoundTrip(t *testing.T) {
	convey.Convey("Given a schema with three classes", t, func() {
		s := NewSchema(2, 3)
		inst, err := s.ToDenseInstances([][]float64{{1, 2}, {3, 4}}, []float64{2, 0})
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Class codes survive the grid", func() {
			codes, err := Codes(inst)
			convey.So(err, convey.ShouldBeNil)
			convey.So(codes, convey.ShouldResemble, []float64{2, 0})
		})

		convey.Convey("Ragged rows are rejected", func() {
			_, err := s.ToDenseInstances([][]float64{{1}}, nil)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestSchemaFloatClass(t *testing.T) {
	convey.Convey("A float schema keeps raw class values", t, func() {
		s := NewFloatSchema(1)
		inst, err := s.ToDenseInstances([][]float64{{1}, {2}}, []float64{0.25, -3})
		convey.So(err, convey.ShouldBeNil)
		_, rows := inst.Size()
		convey.So(rows, convey.ShouldEqual, 2)
		convey.So(base.UnpackBytesToFloat(inst.Get(base.ResolveAttributes(inst, inst.AllClassAttributes())[0], 1)), convey.ShouldEqual, -3)
	})
}

func TestForest(t *testing.T) {
	convey.Convey("Given separable two-class data", t, func() {
		x, y := separable()
		task := learner.Task{Target: "c", Tag: types.TagUnordered, Classes: 2, X: x, Y: y, Params: learner.Params{"mtry": 2}}

		convey.Convey("A tree fits and predicts valid codes", func() {
			est, err := NewTree(task, 0)
			convey.So(err, convey.ShouldBeNil)
			convey.So(est.Fit(x, y), convey.ShouldBeNil)
			pred, err := est.Predict(x)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(pred), convey.ShouldEqual, len(x))
			correct := 0
			for i, p := range pred {
				convey.So(p == 0 || p == 1, convey.ShouldBeTrue)
				if p == y[i] {
					correct++
				}
			}
			convey.So(float64(correct)/float64(len(y)), convey.ShouldBeGreaterThan, 0.9)
		})

		convey.Convey("The feature subset is drawn from the seed", func() {
			task.Params = learner.Params{"mtry": 1}
			a, _ := NewTree(task, 7)
			b, _ := NewTree(task, 7)
			convey.So(a.(*Tree).Features, convey.ShouldResemble, b.(*Tree).Features)
			convey.So(len(a.(*Tree).Features), convey.ShouldEqual, 1)
		})

		convey.Convey("A constant target predicts that constant everywhere", func() {
			ones := make([]float64, len(y))
			for i := range ones {
				ones[i] = 1
			}
			est, _ := NewTree(task, 0)
			convey.So(est.Fit(x, ones), convey.ShouldBeNil)
			pred, err := est.Predict([][]float64{{100, 100}, {-5, 0}})
			convey.So(err, convey.ShouldBeNil)
			convey.So(pred, convey.ShouldResemble, []float64{1, 1})
		})

		convey.Convey("The bagged forest reports an out-of-bag error", func() {
			task.Predict = [][]float64{{2, 0}, {28, 1}}
			res, err := BaggedForest().FitPredict(context.Background(), task)
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.Predictions, convey.ShouldResemble, []float64{0, 1})
			convey.So(res.OOBError, convey.ShouldBeBetweenOrEqual, 0, 1)
		})

		convey.Convey("The same seed gives the same forest", func() {
			task.Predict = x
			task.Seed = 42
			a, err := BaggedForest().FitPredict(context.Background(), task)
			convey.So(err, convey.ShouldBeNil)
			b, err := BaggedForest().FitPredict(context.Background(), task)
			convey.So(err, convey.ShouldBeNil)
			convey.So(b.Predictions, convey.ShouldResemble, a.Predictions)
			convey.So(b.OOBError, convey.ShouldEqual, a.OOBError)
		})

		convey.Convey("A task without predictors is refused", func() {
			_, err := NewTree(learner.Task{Y: []float64{0}, X: [][]float64{{}}}, 0)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("Predicting before fitting fails", func() {
			est, _ := NewTree(task, 0)
			_, err := est.Predict(x)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestRegressionTree(t *testing.T) {
	convey.Convey("Given a step function of one predictor", t, func() {
		var x [][]float64
		var y []float64
		for i := 0; i < 80; i++ {
			v := float64(i) / 10
			x = append(x, []float64{v})
			if v < 4 {
				y = append(y, 1)
			} else {
				y = append(y, 5)
			}
		}
		task := learner.Task{Target: "y", Tag: types.TagContinuous, X: x, Y: y}

		convey.Convey("A regression tree recovers both levels", func() {
			est, err := NewTree(task, 3)
			convey.So(err, convey.ShouldBeNil)
			convey.So(est.Fit(x, y), convey.ShouldBeNil)
			pred, err := est.Predict([][]float64{{1}, {7}})
			convey.So(err, convey.ShouldBeNil)
			convey.So(pred[0], convey.ShouldAlmostEqual, 1, 1e-9)
			convey.So(pred[1], convey.ShouldAlmostEqual, 5, 1e-9)
		})

		convey.Convey("The bagged forest scores out-of-bag mean squared error", func() {
			task.Predict = [][]float64{{0.5}, {7.5}}
			res, err := BaggedForest().FitPredict(context.Background(), task)
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.Predictions[0], convey.ShouldBeLessThan, 2)
			convey.So(res.Predictions[1], convey.ShouldBeGreaterThan, 4)
			convey.So(res.OOBError, convey.ShouldBeLessThan, 1)
		})
	})
}
