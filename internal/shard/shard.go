package shard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"openshard.dev/internal/housing"
	"openshard.dev/internal/persistence/housedb"
	auditlog "openshard.dev/internal/persistence/log"
	"openshard.dev/internal/protocol"
	"openshard.dev/internal/world"
)

// Shard is the single-goroutine owner of all game state: maps, the housing
// registry, timers and connected sessions. Everything that touches a house
// funnels through Run's select loop; the only concurrent reader is the
// design encoder, which works on snapshots.
type Shard struct {
	cfg    Config
	logger *log.Logger

	maps     map[string]*world.Map
	registry *housing.Registry
	store    *housedb.Store
	audit    *auditlog.AuditLogger

	accounts map[string]*world.Account
	mobiles  map[string]*world.Mobile
	sessions map[*world.Mobile]*PlayerSession

	// Serials persisted at the last save, so demolitions prune their rows.
	saved map[world.Serial]bool

	join  chan joinRequest
	leave chan *PlayerSession
	inbox chan envelope

	stop     chan struct{}
	stopOnce sync.Once

	// houseCount mirrors the registry size for handlers off the loop.
	houseCount atomic.Int64
}

type joinRequest struct {
	hello protocol.HelloMsg
	out   chan Frame
	resp  chan joinResponse
}

type joinResponse struct {
	sess    *PlayerSession
	welcome protocol.WelcomeMsg
	err     error
}

type envelope struct {
	sess *PlayerSession
	raw  []byte
}

func New(cfg Config, store *housedb.Store, logger *log.Logger) (*Shard, error) {
	cv := housing.DefaultComponents()
	if cfg.ComponentsPath != "" {
		loaded, err := housing.LoadComponents(cfg.ComponentsPath)
		if err != nil {
			return nil, fmt.Errorf("components: %w", err)
		}
		cv = loaded
	}

	td := world.NewTileData()
	maps := make(map[string]*world.Map)
	for _, spec := range cfg.Maps {
		m := world.NewMap(spec.Name, td)
		m.NoHousing = spec.NoHousing
		if spec.T2A != nil {
			m.T2ABounds = world.Rect2D{X: spec.T2A.X, Y: spec.T2A.Y, Width: spec.T2A.Width, Height: spec.T2A.Height}
		}
		maps[spec.Name] = m
	}

	s := &Shard{
		cfg:      cfg,
		logger:   logger,
		maps:     maps,
		registry: housing.NewRegistry(cfg.Rules(), cv, td, logger),
		store:    store,
		accounts: make(map[string]*world.Account),
		mobiles:  make(map[string]*world.Mobile),
		sessions: make(map[*world.Mobile]*PlayerSession),
		saved:    make(map[world.Serial]bool),
		join:     make(chan joinRequest, 64),
		leave:    make(chan *PlayerSession, 64),
		inbox:    make(chan envelope, 1024),
		stop:     make(chan struct{}),
	}
	if cfg.AuditDir != "" {
		s.audit = auditlog.NewAuditLogger(cfg.AuditDir)
	}
	return s, nil
}

// auditEvent journals one house lifecycle event; no-op without an audit dir.
func (s *Shard) auditEvent(event string, serial world.Serial, mapName, actor, detail string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.WriteEntry(auditlog.Entry{
		Event:  event,
		Serial: uint32(serial),
		Map:    mapName,
		Actor:  actor,
		Detail: detail,
	}); err != nil {
		s.logger.Printf("audit: %v", err)
	}
}

func (s *Shard) Registry() *housing.Registry { return s.registry }

// HouseCount is safe from any goroutine.
func (s *Shard) HouseCount() int64 { return s.houseCount.Load() }

// Boot loads persisted houses before the loop starts taking traffic.
func (s *Shard) Boot() error {
	if s.store == nil {
		return nil
	}
	recs, err := s.store.LoadAll()
	if err != nil {
		return err
	}
	var maxSerial world.Serial
	for _, rec := range recs {
		m := s.maps[rec.MapName]
		if m == nil {
			s.logger.Printf("load: house %d on unknown map %q (skipped)", rec.Serial, rec.MapName)
			continue
		}
		h := housedb.Restore(s.registry, m, rec, s.resolveMobile)
		if h.Serial > maxSerial {
			maxSerial = h.Serial
		}
		s.saved[h.Serial] = true
	}
	world.SeedSerials(maxSerial)
	s.houseCount.Store(int64(s.registry.Count()))
	s.logger.Printf("loaded %d houses", s.registry.Count())
	return nil
}

// resolveMobile materializes offline characters referenced by stored ACLs.
// They stay bodiless (no map position) until the player connects.
func (s *Shard) resolveMobile(name string) *world.Mobile {
	if name == "" {
		return nil
	}
	if m, ok := s.mobiles[name]; ok {
		return m
	}
	m := world.NewMobile(name)
	m.Account = s.account(name)
	s.mobiles[name] = m
	return m
}

func (s *Shard) account(username string) *world.Account {
	if a, ok := s.accounts[username]; ok {
		return a
	}
	a := &world.Account{Username: username, LastLogin: time.Now()}
	s.accounts[username] = a
	return a
}

// Join runs the HELLO handshake from a transport goroutine.
func (s *Shard) Join(ctx context.Context, hello protocol.HelloMsg, out chan Frame) (*PlayerSession, protocol.WelcomeMsg, error) {
	req := joinRequest{hello: hello, out: out, resp: make(chan joinResponse, 1)}
	select {
	case s.join <- req:
	case <-ctx.Done():
		return nil, protocol.WelcomeMsg{}, ctx.Err()
	case <-s.stop:
		return nil, protocol.WelcomeMsg{}, fmt.Errorf("shard stopped")
	}
	select {
	case r := <-req.resp:
		return r.sess, r.welcome, r.err
	case <-ctx.Done():
		return nil, protocol.WelcomeMsg{}, ctx.Err()
	}
}

// Leave detaches a session; safe from any goroutine.
func (s *Shard) Leave(sess *PlayerSession) {
	select {
	case s.leave <- sess:
	case <-s.stop:
	}
}

// Deliver queues one decoded-later client frame; drops when the loop is
// saturated rather than blocking the reader.
func (s *Shard) Deliver(sess *PlayerSession, raw []byte) {
	select {
	case s.inbox <- envelope{sess: sess, raw: raw}:
	default:
		s.logger.Printf("inbox full, dropping frame from %s", sess.mob.Name)
	}
}

func (s *Shard) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Shard) Run(ctx context.Context) error {
	sweep := time.NewTicker(s.cfg.SweepInterval())
	defer sweep.Stop()
	save := time.NewTicker(s.cfg.SaveInterval())
	defer save.Stop()

	defer s.registry.Close()
	defer s.saveAll()
	if s.audit != nil {
		defer s.audit.Close()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case req := <-s.join:
			req.resp <- s.handleJoin(req)
		case sess := <-s.leave:
			s.handleLeave(sess)
		case env := <-s.inbox:
			s.dispatch(env)
		case now := <-sweep.C:
			if n := s.registry.SweepDecay(now); n > 0 {
				s.auditEvent("decay_collapse", 0, "", "", fmt.Sprintf("%d houses collapsed", n))
				s.pruneSaved()
			}
		case <-save.C:
			s.saveAll()
		}
		s.houseCount.Store(int64(s.registry.Count()))
	}
}

func (s *Shard) handleJoin(req joinRequest) joinResponse {
	name := req.hello.CharacterName
	if name == "" {
		return joinResponse{err: fmt.Errorf("empty character name")}
	}
	if req.hello.ProtocolVersion != protocol.Version {
		return joinResponse{err: fmt.Errorf("protocol version %q not supported", req.hello.ProtocolVersion)}
	}

	mob := s.resolveMobile(name)
	if req.hello.Account != "" {
		mob.Account = s.account(req.hello.Account)
	}
	mob.Account.LastLogin = time.Now()

	if old, ok := s.sessions[mob]; ok {
		old.close()
	}

	if mob.Map == nil {
		// First login: drop at the default map's origin town.
		for _, spec := range s.cfg.Maps {
			m := s.maps[spec.Name]
			mob.Location = world.Point3D{X: 1500, Y: 1500, Z: 0}
			m.AddMobile(mob)
			break
		}
	}
	mob.Messages = make(chan string, 64)

	sess := newPlayerSession(mob, req.out)
	s.sessions[mob] = sess

	return joinResponse{
		sess: sess,
		welcome: protocol.WelcomeMsg{
			Type:            protocol.TypeWelcome,
			ProtocolVersion: protocol.Version,
			Serial:          uint32(mob.Serial),
			Map:             mob.Map.Name,
			Pos:             [3]int{mob.Location.X, mob.Location.Y, mob.Location.Z},
		},
	}
}

func (s *Shard) handleLeave(sess *PlayerSession) {
	sess.close()
	if cur, ok := s.sessions[sess.mob]; ok && cur == sess {
		delete(s.sessions, sess.mob)
		// An open customization session ends with the connection; edits
		// since the last backup are abandoned, same as a CLOSE.
		if ctx := s.registry.FindContext(sess.mob); ctx != nil {
			s.registry.DesignClose(sess, ctx.Foundation.Serial)
		}
		sess.mob.Messages = nil
	}
}

// dispatch routes one client frame. A panic in a handler loses that frame
// only, never the loop.
func (s *Shard) dispatch(env envelope) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("panic handling frame from %s: %v", env.sess.mob.Name, r)
		}
	}()

	base, err := protocol.DecodeBase(env.raw)
	if err != nil {
		env.sess.sendResult("", false, "BAD_JSON", err.Error(), 0)
		return
	}
	switch base.Type {
	case protocol.TypePlace:
		var msg protocol.PlaceMsg
		if err := json.Unmarshal(env.raw, &msg); err != nil {
			env.sess.sendResult("", false, "BAD_JSON", err.Error(), 0)
			return
		}
		s.handlePlace(env.sess, msg)
	case protocol.TypeDesignOp:
		var msg protocol.DesignOpMsg
		if err := json.Unmarshal(env.raw, &msg); err != nil {
			env.sess.sendResult("", false, "BAD_JSON", err.Error(), 0)
			return
		}
		s.handleDesignOp(env.sess, msg)
	case protocol.TypeHouseCmd:
		var msg protocol.HouseCmdMsg
		if err := json.Unmarshal(env.raw, &msg); err != nil {
			env.sess.sendResult("", false, "BAD_JSON", err.Error(), 0)
			return
		}
		s.handleHouseCmd(env.sess, msg)
	default:
		env.sess.sendResult("", false, "UNKNOWN_TYPE", fmt.Sprintf("unknown type %q", base.Type), 0)
	}
}

func (s *Shard) handlePlace(sess *PlayerSession, msg protocol.PlaceMsg) {
	mob := sess.mob
	center := world.Point3D{X: msg.Center[0], Y: msg.Center[1], Z: msg.Center[2]}

	res, moveItems, moveMobiles := housing.CheckPlacement(mob, msg.MultiID, center)
	if res != housing.PlacementValid {
		sess.sendResult(msg.ID, false, res.String(), res.Message(), 0)
		return
	}
	if msg.CheckOnly {
		sess.sendResult(msg.ID, true, res.String(), "", 0)
		return
	}
	if !s.registry.CanOwnHouse(mob) {
		sess.sendResult(msg.ID, false, "HOUSE_LIMIT", "You already own the maximum number of houses.", 0)
		return
	}
	if price := housing.PlotPrice(msg.MultiID); price > 0 && !mob.WithdrawGold(price) {
		sess.sendResult(msg.ID, false, "NO_GOLD", "You cannot afford that plot.", 0)
		return
	}

	h := s.registry.BuildHouse(mob, msg.MultiID, center, time.Now(), moveItems, moveMobiles)
	s.saveHouse(h)
	s.auditEvent("placed", h.Serial, h.Map.Name, mob.Name, fmt.Sprintf("multi 0x%04X", msg.MultiID))
	sess.sendResult(msg.ID, true, "PLACED", "", uint32(h.Serial))
}

func (s *Shard) handleDesignOp(sess *PlayerSession, msg protocol.DesignOpMsg) {
	serial := world.Serial(msg.Serial)
	now := time.Now()

	var ok bool
	switch msg.Op {
	case protocol.OpBuild:
		ok = s.registry.DesignBuild(sess, serial, msg.ItemID, msg.X, msg.Y)
	case protocol.OpDelete:
		ok = s.registry.DesignDelete(sess, serial, msg.ItemID, msg.X, msg.Y, msg.Z)
	case protocol.OpStairs:
		ok = s.registry.DesignStairs(sess, serial, msg.ItemID, msg.X, msg.Y)
	case protocol.OpRoof:
		ok = s.registry.DesignRoof(sess, serial, msg.ItemID, msg.X, msg.Y, msg.Z)
	case protocol.OpRoofDelete:
		ok = s.registry.DesignRoofDelete(sess, serial, msg.X, msg.Y)
	case protocol.OpLevel:
		ok = s.registry.DesignLevel(sess, serial, msg.Level)
	case protocol.OpClear:
		ok = s.registry.DesignClear(sess, serial)
	case protocol.OpSync:
		ok = s.registry.DesignSync(sess, serial)
	case protocol.OpBackup:
		ok = s.registry.DesignBackup(sess, serial)
	case protocol.OpRestore:
		ok = s.registry.DesignRestore(sess, serial)
	case protocol.OpRevert:
		ok = s.registry.DesignRevert(sess, serial)
	case protocol.OpCommit:
		ok = s.registry.DesignCommit(sess, serial, now)
		if ok {
			if h := s.registry.Find(serial); h != nil {
				s.saveHouse(h)
				s.auditEvent("design_committed", h.Serial, h.Map.Name, sess.mob.Name, "")
			}
		}
	case protocol.OpClose:
		ok = s.registry.DesignClose(sess, serial)
	default:
		sess.sendResult(msg.ID, false, "UNKNOWN_OP", fmt.Sprintf("unknown op %q", msg.Op), 0)
		return
	}
	sess.sendResult(msg.ID, ok, "", "", msg.Serial)
}

func (s *Shard) handleHouseCmd(sess *PlayerSession, msg protocol.HouseCmdMsg) {
	mob := sess.mob
	h := s.registry.Find(world.Serial(msg.Serial))
	if h == nil {
		sess.sendResult(msg.ID, false, "NO_HOUSE", "No such house.", 0)
		return
	}
	now := time.Now()

	var ok bool
	switch msg.Cmd {
	case protocol.CmdCustomize:
		ok = s.registry.BeginCustomize(sess, h)

	case protocol.CmdDemolish:
		if !h.IsOwner(mob) {
			break
		}
		mapName := h.Map.Name
		h.Demolish()
		if s.store != nil {
			s.store.Delete(msg.Serial)
		}
		delete(s.saved, world.Serial(msg.Serial))
		s.auditEvent("demolished", world.Serial(msg.Serial), mapName, mob.Name, "")
		ok = true

	case protocol.CmdTransfer:
		target := h.Map.FindMobile(world.Serial(msg.Target))
		if target == nil || !h.IsOwner(mob) {
			break
		}
		ok = h.Transfer(target, now)
		if ok {
			s.saveHouse(h)
			s.auditEvent("transferred", h.Serial, h.Map.Name, mob.Name, "to "+target.Name)
		}

	case protocol.CmdLockDown:
		if it := h.Map.FindItem(world.Serial(msg.Target)); it != nil {
			ok = h.LockDown(mob, it)
		}
	case protocol.CmdRelease:
		if it := h.Map.FindItem(world.Serial(msg.Target)); it != nil {
			ok = h.Release(mob, it)
		}
	case protocol.CmdSecure:
		level := housing.SecureOwner
		if msg.SecureLevel != "" {
			parsed, valid := housing.ParseSecureLevel(msg.SecureLevel)
			if !valid {
				sess.sendResult(msg.ID, false, "BAD_LEVEL", "Unknown secure level.", msg.Serial)
				return
			}
			level = parsed
		}
		if it := h.Map.FindItem(world.Serial(msg.Target)); it != nil {
			ok = h.AddSecure(mob, it, level)
		}
	case protocol.CmdReleaseSecure:
		if it := h.Map.FindItem(world.Serial(msg.Target)); it != nil {
			ok = h.ReleaseSecure(mob, it)
		}

	case protocol.CmdAddCoOwner:
		ok = s.aclOp(h, mob, msg.Target, h.AddCoOwner)
	case protocol.CmdRemoveCoOwner:
		ok = s.aclOp(h, mob, msg.Target, h.RemoveCoOwner)
	case protocol.CmdAddFriend:
		ok = s.aclOp(h, mob, msg.Target, h.AddFriend)
	case protocol.CmdRemoveFriend:
		ok = s.aclOp(h, mob, msg.Target, h.RemoveFriend)
	case protocol.CmdBan:
		ok = s.aclOp(h, mob, msg.Target, h.Ban)
	case protocol.CmdRemoveBan:
		ok = s.aclOp(h, mob, msg.Target, h.RemoveBan)
	case protocol.CmdGrantAccess:
		ok = s.aclOp(h, mob, msg.Target, h.GrantAccess)
	case protocol.CmdRemoveAccess:
		ok = s.aclOp(h, mob, msg.Target, h.RemoveAccess)
	case protocol.CmdKick:
		ok = s.aclOp(h, mob, msg.Target, h.Kick)

	case protocol.CmdPublic:
		if h.IsOwner(mob) {
			h.SetPublic(true)
			ok = true
		}
	case protocol.CmdPrivate:
		if h.IsOwner(mob) {
			h.SetPublic(false)
			ok = true
		}
	case protocol.CmdChangeLocks:
		if h.IsOwner(mob) {
			h.ChangeLocks()
			ok = true
		}
	case protocol.CmdRefresh:
		if h.IsFriend(mob) {
			h.RefreshDecay(now)
			ok = true
		}

	default:
		sess.sendResult(msg.ID, false, "UNKNOWN_CMD", fmt.Sprintf("unknown cmd %q", msg.Cmd), msg.Serial)
		return
	}
	sess.sendResult(msg.ID, ok, "", "", msg.Serial)
}

func (s *Shard) aclOp(h *housing.House, from *world.Mobile, target uint32, op func(from, target *world.Mobile) bool) bool {
	t := h.Map.FindMobile(world.Serial(target))
	if t == nil {
		return false
	}
	return op(from, t)
}

func (s *Shard) saveHouse(h *housing.House) {
	if s.store == nil {
		return
	}
	s.store.Save(housedb.Snapshot(h))
	s.saved[h.Serial] = true
}

// saveAll snapshots every live house and prunes rows for houses that no
// longer exist (decayed or demolished since the last pass).
func (s *Shard) saveAll() {
	if s.store == nil {
		return
	}
	s.registry.All(func(h *housing.House) {
		s.store.Save(housedb.Snapshot(h))
		s.saved[h.Serial] = true
	})
	s.pruneSaved()
}

func (s *Shard) pruneSaved() {
	if s.store == nil {
		return
	}
	for serial := range s.saved {
		if s.registry.Find(serial) == nil {
			s.store.Delete(uint32(serial))
			delete(s.saved, serial)
		}
	}
}
