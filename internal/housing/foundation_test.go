package housing

import (
	"testing"
	"time"

	"openshard.dev/internal/world"
)

func beginCustomize(t *testing.T, env *testEnv, owner *world.Mobile, h *House) *testSession {
	t.Helper()
	sess := &testSession{mob: owner}
	if !env.reg.BeginCustomize(sess, h) {
		t.Fatalf("BeginCustomize refused for the owner")
	}
	return sess
}

func TestBeginCustomizeGating(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	owner := env.newPlayer(t, "alice", 0)
	stranger := env.newPlayer(t, "dave", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})

	if env.reg.BeginCustomize(&testSession{mob: stranger}, h) {
		t.Fatalf("non-owner opened a design session")
	}

	sess := beginCustomize(t, env, owner, h)
	waitFor(t, "initial design packets", func() bool { return sess.packetCount() >= 2 })

	if env.reg.BeginCustomize(sess, h) {
		t.Fatalf("second session opened for the same player")
	}

	// A second editor with owner rights still cannot join an open session.
	gm := env.newPlayer(t, "staff", 0)
	gm.AccessLevel = world.AccessGameMaster
	if env.reg.BeginCustomize(&testSession{mob: gm}, h) {
		t.Fatalf("two editors on one foundation")
	}

	env.reg.DesignClose(sess, h.Serial)
	if env.reg.FindContext(owner) != nil {
		t.Fatalf("context survived close")
	}
}

func TestDesignBuildValidation(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	owner := env.newPlayer(t, "alice", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})
	sess := beginCustomize(t, env, owner, h)

	ds := h.DesignState()
	before := ds.Components.Count()
	rev := ds.Revision()

	if !env.reg.DesignBuild(sess, h.Serial, 0x0064, 0, 0) {
		t.Fatalf("wall build refused")
	}
	if ds.Components.Count() != before+1 {
		t.Fatalf("build did not add a tile")
	}
	if ds.Revision() <= rev {
		t.Fatalf("build did not bump the revision")
	}

	if env.reg.DesignBuild(sess, h.Serial, 0x5000, 0, 0) {
		t.Fatalf("off-catalog tile accepted")
	}
	if env.reg.DesignBuild(sess, h.Serial, 0x0064, 100, 100) {
		t.Fatalf("out-of-bounds build accepted")
	}
	if env.reg.DesignBuild(sess, world.Serial(0xFFFF), 0x0064, 0, 0) {
		t.Fatalf("build accepted against the wrong house serial")
	}
}

func TestDesignBuildHonorsWorkingLevel(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	owner := env.newPlayer(t, "alice", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})
	sess := beginCustomize(t, env, owner, h)

	if !env.reg.DesignLevel(sess, h.Serial, 2) {
		t.Fatalf("level change refused")
	}
	env.reg.DesignBuild(sess, h.Serial, 0x0064, 1, 1)

	found := false
	for _, e := range h.DesignState().Components.List() {
		if e.ItemID == 0x0064 && e.X == 1 && e.Y == 1 && e.Z == LevelZ(2) {
			found = true
		}
	}
	if !found {
		t.Fatalf("tile not placed at the second-floor elevation")
	}

	// An 8x8 plot has three floors.
	if env.reg.DesignLevel(sess, h.Serial, 4) {
		t.Fatalf("level beyond the plot's floor count accepted")
	}
	if env.reg.DesignLevel(sess, h.Serial, 0) {
		t.Fatalf("level zero accepted")
	}
}

func TestDesignDeleteProtectsFoundation(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	owner := env.newPlayer(t, "alice", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})
	sess := beginCustomize(t, env, owner, h)

	if env.reg.DesignDelete(sess, h.Serial, world.TileFoundationBase, 0, 0, 0) {
		t.Fatalf("foundation ring tile deleted")
	}

	env.reg.DesignBuild(sess, h.Serial, 0x0064, 0, 0)
	before := h.DesignState().Components.Count()
	if !env.reg.DesignDelete(sess, h.Serial, 0x0064, 0, 0, LevelZ(1)) {
		t.Fatalf("wall delete refused")
	}
	if h.DesignState().Components.Count() != before-1 {
		t.Fatalf("delete did not remove the tile")
	}

	if env.reg.DesignDelete(sess, h.Serial, 0x0064, 5, 5, LevelZ(1)) {
		t.Fatalf("delete of an absent tile reported success")
	}
}

func TestDesignCommitChargesBySizeDelta(t *testing.T) {
	rules := DefaultRules()
	rules.CustomizationCost = 10000
	env := newTestEnv(t, rules)
	owner := env.newPlayer(t, "alice", 12000)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})
	sess := beginCustomize(t, env, owner, h)

	for i := 0; i < 3; i++ {
		env.reg.DesignBuild(sess, h.Serial, 0x0064, i, 0)
	}
	env.reg.DesignBuild(sess, h.Serial, 0x0675, 3, 0) // a door: melts to a fixture

	priceBefore := h.Price
	if !env.reg.DesignCommit(sess, h.Serial, time.Now()) {
		t.Fatalf("commit refused with the exact balance banked")
	}

	// Four added tiles on a 10000 base: 12000 total, the whole bank.
	if got := owner.BankGold(); got != 0 {
		t.Fatalf("bank holds %d after commit, want 0", got)
	}
	if h.Price != priceBefore+12000 {
		t.Fatalf("house price moved by %d, want 12000", h.Price-priceBefore)
	}
	if env.reg.FindContext(owner) != nil {
		t.Fatalf("commit left the session open")
	}
	if len(h.Doors) != 1 {
		t.Fatalf("door fixture not realized, have %d doors", len(h.Doors))
	}
	if len(h.CurrentState().Fixtures) != 1 {
		t.Fatalf("committed state kept the door as a plain tile")
	}
}

func TestDesignCommitAbortsWithoutFunds(t *testing.T) {
	rules := DefaultRules()
	rules.CustomizationCost = 10000
	env := newTestEnv(t, rules)
	owner := env.newPlayer(t, "alice", 500)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})
	sess := beginCustomize(t, env, owner, h)

	env.reg.DesignBuild(sess, h.Serial, 0x0064, 0, 0)
	currentBefore := h.CurrentState().Components.Count()

	if env.reg.DesignCommit(sess, h.Serial, time.Now()) {
		t.Fatalf("commit succeeded on an empty bank")
	}
	if owner.BankGold() != 500 {
		t.Fatalf("aborted commit touched the bank")
	}
	if h.CurrentState().Components.Count() != currentBefore {
		t.Fatalf("aborted commit changed the visible state")
	}
	if env.reg.FindContext(owner) == nil {
		t.Fatalf("aborted commit closed the session")
	}
}

func TestDesignCommitRefundsShrinkage(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	owner := env.newPlayer(t, "alice", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})
	sess := beginCustomize(t, env, owner, h)

	// Strip two dirt tiles off the first floor.
	env.reg.DesignDelete(sess, h.Serial, world.TileDirtFloor, 0, 0, 7)
	env.reg.DesignDelete(sess, h.Serial, world.TileDirtFloor, 1, 0, 7)

	if !env.reg.DesignCommit(sess, h.Serial, time.Now()) {
		t.Fatalf("shrinking commit refused")
	}
	if got := owner.BankGold(); got != 1000 {
		t.Fatalf("refund %d, want 1000", got)
	}
}

func TestDesignBackupRestoreRevert(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	owner := env.newPlayer(t, "alice", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})
	sess := beginCustomize(t, env, owner, h)

	baseline := h.DesignState().Components.Count()

	env.reg.DesignBuild(sess, h.Serial, 0x0064, 0, 0)
	if !env.reg.DesignBackup(sess, h.Serial) {
		t.Fatalf("backup refused")
	}
	env.reg.DesignBuild(sess, h.Serial, 0x0064, 1, 0)
	env.reg.DesignBuild(sess, h.Serial, 0x0064, 2, 0)

	if !env.reg.DesignRestore(sess, h.Serial) {
		t.Fatalf("restore refused")
	}
	if got := h.DesignState().Components.Count(); got != baseline+1 {
		t.Fatalf("restore landed on %d tiles, want %d", got, baseline+1)
	}

	if !env.reg.DesignRevert(sess, h.Serial) {
		t.Fatalf("revert refused")
	}
	if got := h.DesignState().Components.Count(); got != baseline {
		t.Fatalf("revert landed on %d tiles, want the visible %d", got, baseline)
	}
}

func TestDesignClearResetsToEmptyFoundation(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	owner := env.newPlayer(t, "alice", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})
	sess := beginCustomize(t, env, owner, h)

	env.reg.DesignBuild(sess, h.Serial, 0x0064, 0, 0)
	if !env.reg.DesignClear(sess, h.Serial) {
		t.Fatalf("clear refused")
	}
	if got, want := h.DesignState().Components.Count(), EmptyFoundation(h.MultiID).Count(); got != want {
		t.Fatalf("cleared design has %d tiles, want %d", got, want)
	}
}

func TestDesignStairsAddRisers(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	owner := env.newPlayer(t, "alice", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})
	sess := beginCustomize(t, env, owner, h)

	before := h.DesignState().Components.Count()
	if !env.reg.DesignStairs(sess, h.Serial, 0x0730, 0, 0) {
		t.Fatalf("stair build refused")
	}
	if got := h.DesignState().Components.Count(); got != before+4 {
		t.Fatalf("stair placed %d tiles, want 4", got-before)
	}
	if env.reg.DesignStairs(sess, h.Serial, 0x0064, 0, 1) {
		t.Fatalf("wall accepted as a stair piece")
	}
}

func TestDesignRoofRequiresSamuraiEra(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	owner := env.newPlayer(t, "alice", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})
	sess := beginCustomize(t, env, owner, h)

	if env.reg.DesignRoof(sess, h.Serial, 0x1560, 0, 0, 0) {
		t.Fatalf("roofing allowed before the samurai era")
	}
}

func TestDesignRoofReplacesPerColumn(t *testing.T) {
	rules := DefaultRules()
	rules.Era = EraSE
	env := newTestEnv(t, rules)
	owner := env.newPlayer(t, "alice", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})
	sess := beginCustomize(t, env, owner, h)

	if !env.reg.DesignRoof(sess, h.Serial, 0x1560, 0, 0, 0) {
		t.Fatalf("roof build refused")
	}
	if !env.reg.DesignRoof(sess, h.Serial, 0x1561, 0, 0, 3) {
		t.Fatalf("roof replace refused")
	}

	count := 0
	for _, e := range h.DesignState().Components.List() {
		if e.X == 0 && e.Y == 0 && env.reg.Components.IsRoof(e.ItemID, rules.Era) {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("column holds %d roof tiles, want 1", count)
	}

	if !env.reg.DesignRoofDelete(sess, h.Serial, 0, 0) {
		t.Fatalf("roof delete refused")
	}
	if env.reg.DesignRoofDelete(sess, h.Serial, 0, 0) {
		t.Fatalf("empty column reported a roof delete")
	}
}

func TestCustomizationStashesAndRestoresEntities(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	owner := env.newPlayer(t, "alice", 0)
	h := env.placeFoundation(t, owner, world.Point3D{X: 200, Y: 200, Z: 0})

	vase := newHouseItem(env, h, 0x0DE3)
	guest := env.newPlayer(t, "dave", 0)
	env.m.MoveMobile(guest, world.Point3D{X: 201, Y: 201, Z: 7})

	sess := beginCustomize(t, env, owner, h)
	if vase.Visible {
		t.Fatalf("loose item still visible during customization")
	}
	if len(h.Relocated) == 0 {
		t.Fatalf("nothing stashed")
	}

	env.reg.DesignClose(sess, h.Serial)
	if !vase.Visible {
		t.Fatalf("stashed item not restored on close")
	}
}
