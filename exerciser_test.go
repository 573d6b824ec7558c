package canopy

import (
	"fmt"
	"reflect"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/commands"
	"github.com/leanovate/gopter/gen"
)

const (
	exMax       = 9_999
	exSnapshots = 5
)

type exExpected struct {
	entries  map[uint64]struct{}
	snapshot []map[uint64]struct{}
}

type exSystem struct {
	set      *Set[uint64]
	snapshot []*Set[uint64]
}

type exInsertCommand uint64

func (value exInsertCommand) Run(s commands.SystemUnderTest) commands.Result {
	s.(*exSystem).set.Insert(uint64(value))
	return nil
}

func (value exInsertCommand) NextState(state commands.State) commands.State {
	state.(*exExpected).entries[uint64(value)] = struct{}{}
	return state
}

func (exInsertCommand) PreCondition(commands.State) bool { return true }

func (exInsertCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	if result != nil {
		return &gopter.PropResult{Status: gopter.PropFalse}
	}
	return &gopter.PropResult{Status: gopter.PropTrue}
}

func (value exInsertCommand) String() string { return fmt.Sprintf("Insert(%d)", uint64(value)) }

type exDeleteCommand uint64

func (value exDeleteCommand) Run(s commands.SystemUnderTest) commands.Result {
	return s.(*exSystem).set.Delete(uint64(value))
}

func (value exDeleteCommand) NextState(state commands.State) commands.State {
	delete(state.(*exExpected).entries, uint64(value))
	return state
}

func (exDeleteCommand) PreCondition(commands.State) bool { return true }

func (value exDeleteCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	// NextState ran before us, so presence cannot be rechecked here; the
	// contains and size commands keep the model honest.
	if _, ok := result.(bool); !ok {
		return &gopter.PropResult{Status: gopter.PropFalse}
	}
	return &gopter.PropResult{Status: gopter.PropTrue}
}

func (value exDeleteCommand) String() string { return fmt.Sprintf("Delete(%d)", uint64(value)) }

type exContainsCommand uint64

func (value exContainsCommand) Run(s commands.SystemUnderTest) commands.Result {
	return s.(*exSystem).set.Contains(uint64(value))
}

func (exContainsCommand) NextState(state commands.State) commands.State { return state }

func (exContainsCommand) PreCondition(commands.State) bool { return true }

func (value exContainsCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	_, want := state.(*exExpected).entries[uint64(value)]
	if result.(bool) != want {
		return &gopter.PropResult{Status: gopter.PropFalse}
	}
	return &gopter.PropResult{Status: gopter.PropTrue}
}

func (value exContainsCommand) String() string { return fmt.Sprintf("Contains(%d)", uint64(value)) }

var exSizeCommand = &commands.ProtoCommand{
	Name: "Size",
	RunFunc: func(s commands.SystemUnderTest) commands.Result {
		return s.(*exSystem).set.Len()
	},
	PostConditionFunc: func(state commands.State, result commands.Result) *gopter.PropResult {
		if result.(uint64) != uint64(len(state.(*exExpected).entries)) {
			return &gopter.PropResult{Status: gopter.PropFalse}
		}
		return &gopter.PropResult{Status: gopter.PropTrue}
	},
}

var exOrderCommand = &commands.ProtoCommand{
	Name: "Order",
	RunFunc: func(s commands.SystemUnderTest) commands.Result {
		var got []uint64
		_ = s.(*exSystem).set.Iter(func(x uint64) error {
			got = append(got, x)
			return nil
		})
		return got
	},
	PostConditionFunc: func(state commands.State, result commands.Result) *gopter.PropResult {
		want := sortedElements(state.(*exExpected).entries)
		got := result.([]uint64)
		if len(got) != len(want) {
			return &gopter.PropResult{Status: gopter.PropFalse}
		}
		for i := range got {
			if got[i] != want[i] {
				return &gopter.PropResult{Status: gopter.PropFalse}
			}
		}
		return &gopter.PropResult{Status: gopter.PropTrue}
	},
}

type exSnapshotCommand uint64

func (n exSnapshotCommand) Run(s commands.SystemUnderTest) commands.Result {
	slot := int(n) % exSnapshots
	sys := s.(*exSystem)
	if sys.snapshot[slot] != nil {
		sys.snapshot[slot].Release()
	}
	sys.snapshot[slot] = sys.set.Clone()
	return nil
}

func (n exSnapshotCommand) NextState(state commands.State) commands.State {
	s := state.(*exExpected)
	slot := int(n) % exSnapshots
	snapshot := make(map[uint64]struct{}, len(s.entries))
	for k := range s.entries {
		snapshot[k] = struct{}{}
	}
	s.snapshot[slot] = snapshot
	return s
}

func (exSnapshotCommand) PreCondition(commands.State) bool { return true }

func (exSnapshotCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return &gopter.PropResult{Status: gopter.PropTrue}
}

func (n exSnapshotCommand) String() string {
	return fmt.Sprintf("Snapshot(%d)", int(n)%exSnapshots)
}

type exDiffCommand uint64

func (n exDiffCommand) Run(s commands.SystemUnderTest) commands.Result {
	slot := int(n) % exSnapshots
	sys := s.(*exSystem)
	old := sys.snapshot[slot]
	added := map[uint64]struct{}{}
	removed := map[uint64]struct{}{}
	err := Diff(old.Tree(), sys.set.Tree(), func(o, nw *uint64) (bool, error) {
		if o != nil {
			removed[*o] = struct{}{}
		}
		if nw != nil {
			added[*nw] = struct{}{}
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	return [2]map[uint64]struct{}{added, removed}
}

func (exDiffCommand) NextState(state commands.State) commands.State { return state }

func (n exDiffCommand) PreCondition(state commands.State) bool {
	return state.(*exExpected).snapshot[int(n)%exSnapshots] != nil
}

func (n exDiffCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	if err, isErr := result.(error); isErr {
		fmt.Printf("diff: %v\n", err)
		return &gopter.PropResult{Status: gopter.PropFalse}
	}
	s := state.(*exExpected)
	old := s.snapshot[int(n)%exSnapshots]
	wantAdded := map[uint64]struct{}{}
	wantRemoved := map[uint64]struct{}{}
	for k := range s.entries {
		if _, ok := old[k]; !ok {
			wantAdded[k] = struct{}{}
		}
	}
	for k := range old {
		if _, ok := s.entries[k]; !ok {
			wantRemoved[k] = struct{}{}
		}
	}
	actual := result.([2]map[uint64]struct{})
	if !reflect.DeepEqual(wantAdded, actual[0]) || !reflect.DeepEqual(wantRemoved, actual[1]) {
		return &gopter.PropResult{Status: gopter.PropFalse}
	}
	return &gopter.PropResult{Status: gopter.PropTrue}
}

func (n exDiffCommand) String() string { return fmt.Sprintf("Diff(%d)", int(n)%exSnapshots) }

type exUnionCommand uint64

func (n exUnionCommand) Run(s commands.SystemUnderTest) commands.Result {
	slot := int(n) % exSnapshots
	sys := s.(*exSystem)
	u := sys.set.Union(sys.snapshot[slot])
	var got []uint64
	_ = u.Iter(func(x uint64) error {
		got = append(got, x)
		return nil
	})
	u.Release()
	return got
}

func (exUnionCommand) NextState(state commands.State) commands.State { return state }

func (n exUnionCommand) PreCondition(state commands.State) bool {
	return state.(*exExpected).snapshot[int(n)%exSnapshots] != nil
}

func (n exUnionCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	s := state.(*exExpected)
	model := map[uint64]struct{}{}
	for k := range s.entries {
		model[k] = struct{}{}
	}
	for k := range s.snapshot[int(n)%exSnapshots] {
		model[k] = struct{}{}
	}
	want := sortedElements(model)
	got := result.([]uint64)
	if len(got) != len(want) {
		return &gopter.PropResult{Status: gopter.PropFalse}
	}
	for i := range got {
		if got[i] != want[i] {
			return &gopter.PropResult{Status: gopter.PropFalse}
		}
	}
	return &gopter.PropResult{Status: gopter.PropTrue}
}

func (n exUnionCommand) String() string { return fmt.Sprintf("Union(%d)", int(n)%exSnapshots) }

func sortedElements(m map[uint64]struct{}) []uint64 {
	out := make([]uint64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func exCommandGen(toCommand func(uint64) commands.Command, fromCommand func(interface{}) uint64) gopter.Gen {
	return gen.UInt64Range(0, exMax).Map(func(value uint64) commands.Command {
		return toCommand(value)
	}).WithShrinker(func(v interface{}) gopter.Shrink {
		return gen.UInt64Shrinker(fromCommand(v)).Map(func(value uint64) commands.Command {
			return toCommand(value)
		})
	})
}

var (
	exGenInsert = exCommandGen(
		func(v uint64) commands.Command { return exInsertCommand(v) },
		func(c interface{}) uint64 { return uint64(c.(exInsertCommand)) })
	exGenDelete = exCommandGen(
		func(v uint64) commands.Command { return exDeleteCommand(v) },
		func(c interface{}) uint64 { return uint64(c.(exDeleteCommand)) })
	exGenContains = exCommandGen(
		func(v uint64) commands.Command { return exContainsCommand(v) },
		func(c interface{}) uint64 { return uint64(c.(exContainsCommand)) })
	exGenSnapshot = exCommandGen(
		func(v uint64) commands.Command { return exSnapshotCommand(v) },
		func(c interface{}) uint64 { return uint64(c.(exSnapshotCommand)) })
	exGenDiff = exCommandGen(
		func(v uint64) commands.Command { return exDiffCommand(v) },
		func(c interface{}) uint64 { return uint64(c.(exDiffCommand)) })
	exGenUnion = exCommandGen(
		func(v uint64) commands.Command { return exUnionCommand(v) },
		func(c interface{}) uint64 { return uint64(c.(exUnionCommand)) })
)

var setCommands = &commands.ProtoCommands{
	NewSystemUnderTestFunc: func(initialState commands.State) commands.SystemUnderTest {
		set, err := NewSet(SetConfig[uint64]{
			Compare: u64Compare,
			Bytes:   u64Bytes,
			Salt:    23,
		})
		if err != nil {
			return err
		}
		for k := range initialState.(*exExpected).entries {
			set.Insert(k)
		}
		return &exSystem{set: set, snapshot: make([]*Set[uint64], exSnapshots)}
	},
	DestroySystemUnderTestFunc: func(s commands.SystemUnderTest) {
		sys := s.(*exSystem)
		sys.set.Release()
		for _, snap := range sys.snapshot {
			if snap != nil {
				snap.Release()
			}
		}
	},
	InitialStateGen: gen.MapOf(gen.UInt64Range(0, exMax), gen.Const(struct{}{})).Map(
		func(entries map[uint64]struct{}) *exExpected {
			return &exExpected{
				entries:  entries,
				snapshot: make([]map[uint64]struct{}, exSnapshots),
			}
		}),
	InitialPreConditionFunc: func(state commands.State) bool {
		_ = state.(*exExpected)
		return true
	},
	GenCommandFunc: func(state commands.State) gopter.Gen {
		return gen.Weighted(
			[]gen.WeightedGen{
				{Weight: 100, Gen: exGenInsert},
				{Weight: 100, Gen: exGenDelete},
				{Weight: 100, Gen: exGenContains},
				{Weight: 5, Gen: exGenSnapshot},
				{Weight: 2, Gen: exGenDiff},
				{Weight: 2, Gen: exGenUnion},
				{Weight: 50, Gen: gen.Const(exSizeCommand)},
				{Weight: 2, Gen: gen.Const(exOrderCommand)},
			},
		)
	},
}

func TestExerciser(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	if !testing.Short() {
		parameters.MaxSize = 2048
	}
	properties := gopter.NewProperties(parameters)
	properties.Property("set exerciser", commands.Prop(setCommands))
	properties.TestingRun(t)
}
