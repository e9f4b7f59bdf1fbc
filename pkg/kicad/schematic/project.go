package schematic

import (
	"fmt"
	"iter"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/schnet/pkg/connectivity"
)

// onSegmentTolerance is the distance in millimeters within which a bus entry
// end counts as lying on a bus.
const onSegmentTolerance = 1e-4

// Project is a loaded sheet hierarchy. It implements connectivity.Source
// and connectivity.AliasSource. A Project is a read-only snapshot of the
// files at load time.
type Project struct {
	// RootFile is the absolute path of the root schematic.
	RootFile string
	Root     *Schematic

	files     map[string]*Schematic
	instances []*instance
	byKey     map[string]*instance
	aliases   map[string][]string
}

type instance struct {
	path connectivity.SheetPath
	file string
	sch  *Schematic
	// kicadPath is the instance path KiCad 7+ records in symbol
	// instances: "/<root uuid>/<sheet uuid>...".
	kicadPath string
	// legacyPath is the KiCad 6 form without the root uuid.
	legacyPath string
	items      []connectivity.Item
}

// ProjectOption configures LoadProject.
type ProjectOption func(*projectLoader)

// WithProjectLogger sets the logger used while loading.
func WithProjectLogger(l *slog.Logger) ProjectOption {
	return func(pl *projectLoader) { pl.logger = l }
}

type projectLoader struct {
	p      *Project
	dir    string
	logger *slog.Logger
}

// LoadProject parses the root schematic and every sheet it instantiates.
// Sheet files are resolved relative to the file that references them, then
// to the root directory. Each file is parsed once even when instantiated
// several times. Recursive sheet references are an error.
func LoadProject(filename string, opts ...ProjectOption) (*Project, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", filename, err)
	}
	pl := &projectLoader{
		p: &Project{
			RootFile: abs,
			files:    make(map[string]*Schematic),
			byKey:    make(map[string]*instance),
			aliases:  make(map[string][]string),
		},
		dir:    filepath.Dir(abs),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(pl)
	}

	root, err := pl.file(abs)
	if err != nil {
		return nil, err
	}
	pl.p.Root = root

	rootPath := "/" + root.UUID
	if root.UUID == "" {
		rootPath = ""
	}
	if err := pl.walk(connectivity.RootSheet(), abs, root, rootPath, "", []string{abs}); err != nil {
		return nil, err
	}
	for _, inst := range pl.p.instances {
		inst.items = pl.p.elements(inst)
	}
	pl.logger.Debug("project loaded",
		"root", abs,
		"files", len(pl.p.files),
		"instances", len(pl.p.instances),
	)
	return pl.p, nil
}

func (pl *projectLoader) file(path string) (*Schematic, error) {
	if sch, ok := pl.p.files[path]; ok {
		return sch, nil
	}
	sch, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	pl.p.files[path] = sch
	for _, a := range sch.BusAliases {
		if _, ok := pl.p.aliases[a.Name]; !ok {
			pl.p.aliases[a.Name] = a.Members
		}
	}
	pl.logger.Debug("schematic parsed", "file", path, "version", sch.Version, "sheets", len(sch.Sheets))
	return sch, nil
}

func (pl *projectLoader) walk(path connectivity.SheetPath, file string, sch *Schematic, kicadPath, legacyPath string, stack []string) error {
	inst := &instance{
		path:       path,
		file:       file,
		sch:        sch,
		kicadPath:  kicadPath,
		legacyPath: legacyPath,
	}
	pl.p.instances = append(pl.p.instances, inst)
	pl.p.byKey[path.Key()] = inst

	for _, sheet := range sch.Sheets {
		child, err := pl.resolve(file, sheet.File)
		if err != nil {
			return fmt.Errorf("sheet %q in %s: %w", sheet.Name, file, err)
		}
		for _, f := range stack {
			if f == child {
				return fmt.Errorf("sheet %q in %s: recursive sheet reference: %s -> %s",
					sheet.Name, file, strings.Join(stack, " -> "), child)
			}
		}
		childSch, err := pl.file(child)
		if err != nil {
			return fmt.Errorf("sheet %q: %w", sheet.Name, err)
		}
		name := sheet.Name
		if name == "" {
			name = sheet.UUID
		}
		next := path.Child(instanceID(sheet.UUID), name)
		if err := pl.walk(next, child, childSch,
			kicadPath+"/"+sheet.UUID, legacyPath+"/"+sheet.UUID,
			append(stack[:len(stack):len(stack)], child)); err != nil {
			return err
		}
	}
	return nil
}

func (pl *projectLoader) resolve(parent, name string) (string, error) {
	if filepath.IsAbs(name) {
		return filepath.Clean(name), nil
	}
	candidates := []string{
		filepath.Join(filepath.Dir(parent), name),
		filepath.Join(pl.dir, name),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("sheet file %s not found", name)
}

// instanceID canonicalises a KiCad uuid. Text that is not a uuid is used
// as is.
func instanceID(s string) string {
	if u, err := uuid.Parse(s); err == nil {
		return u.String()
	}
	return s
}

// SheetInstances implements connectivity.Source in depth-first sheet order.
func (p *Project) SheetInstances() iter.Seq[connectivity.SheetPath] {
	return func(yield func(connectivity.SheetPath) bool) {
		for _, inst := range p.instances {
			if !yield(inst.path) {
				return
			}
		}
	}
}

// Items implements connectivity.Source.
func (p *Project) Items(path connectivity.SheetPath) iter.Seq[connectivity.Item] {
	inst := p.byKey[path.Key()]
	return func(yield func(connectivity.Item) bool) {
		if inst == nil {
			return
		}
		for _, it := range inst.items {
			if !yield(it) {
				return
			}
		}
	}
}

// BusAliases implements connectivity.AliasSource. The first definition of
// a name wins.
func (p *Project) BusAliases() map[string][]string {
	out := make(map[string][]string, len(p.aliases))
	for k, v := range p.aliases {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Files returns the absolute paths of every parsed file.
func (p *Project) Files() []string {
	out := make([]string, 0, len(p.files))
	for f := range p.files {
		out = append(out, f)
	}
	return out
}

// Schematic returns the file instantiated at path.
func (p *Project) Schematic(path connectivity.SheetPath) (*Schematic, bool) {
	inst, ok := p.byKey[path.Key()]
	if !ok {
		return nil, false
	}
	return inst.sch, true
}

// Reference resolves the reference designator of s in sheet instance path.
func (p *Project) Reference(path connectivity.SheetPath, s *Symbol) string {
	inst, ok := p.byKey[path.Key()]
	if !ok {
		return s.Reference
	}
	return p.reference(inst, s)
}

func (p *Project) reference(inst *instance, s *Symbol) string {
	if ref, ok := s.References[inst.kicadPath]; ok {
		return ref
	}
	if p.Root != nil && p.Root.SymbolInstances != nil {
		if ref, ok := p.Root.SymbolInstances[inst.legacyPath+"/"+s.UUID]; ok {
			return ref
		}
	}
	return s.Reference
}

func point(p Position) connectivity.Point {
	return connectivity.Point{X: p.X, Y: p.Y}
}

// elements converts one sheet instance into connectivity items.
func (p *Project) elements(inst *instance) []connectivity.Item {
	sch := inst.sch
	var out []connectivity.Item
	seen := make(map[connectivity.ItemID]int)
	add := func(e *connectivity.Element) {
		if n, dup := seen[e.UID]; dup {
			seen[e.UID] = n + 1
			e.UID = connectivity.ItemID(fmt.Sprintf("%s~%d", e.UID, n+1))
		} else {
			seen[e.UID] = 0
		}
		out = append(out, e)
	}
	id := func(uid, kind string, idx int) connectivity.ItemID {
		if uid != "" {
			return connectivity.ItemID(uid)
		}
		return connectivity.ItemID(fmt.Sprintf("%s@%d", kind, idx))
	}

	for i := range sch.Symbols {
		s := &sch.Symbols[i]
		ls := sch.LibSymbol(s)
		if ls == nil {
			continue
		}
		ref := p.reference(inst, s)
		tr := SymbolTransform(s)
		symID := string(id(s.UUID, "symbol", i))
		for _, pin := range ls.UnitPins(s.Unit, s.BodyStyle) {
			e := &connectivity.Element{
				UID:    connectivity.ItemID(symID + "/" + pin.Number),
				Type:   connectivity.ItemPin,
				At:     []connectivity.Point{point(tr.Apply(pin.At.Position))},
				Ref:    ref,
				PinNum: pin.Number,
			}
			switch {
			case ls.Power:
				e.Type = connectivity.ItemPowerPin
				e.Label = s.Value
			case pin.Hidden && pin.Type == "power_in" && pin.Name != "":
				// Invisible power inputs join the global net of their name.
				e.Type = connectivity.ItemPowerPin
				e.Label = pin.Name
			}
			add(e)
		}
	}

	for i, w := range sch.Wires {
		for _, e := range segments(id(w.UUID, "wire", i), connectivity.ItemWire, w.Points) {
			add(e)
		}
	}
	for i, b := range sch.Buses {
		for _, e := range segments(id(b.UUID, "bus", i), connectivity.ItemBus, b.Points) {
			add(e)
		}
	}

	for i, be := range sch.BusEntries {
		busSide, wireSide := be.At, be.End()
		if !onAnyBus(sch.Buses, busSide) && onAnyBus(sch.Buses, wireSide) {
			busSide, wireSide = wireSide, busSide
		}
		add(&connectivity.Element{
			UID:  id(be.UUID, "bus_entry", i),
			Type: connectivity.ItemBusEntry,
			At:   []connectivity.Point{point(busSide), point(wireSide)},
		})
	}

	for i, j := range sch.Junctions {
		add(&connectivity.Element{
			UID:  id(j.UUID, "junction", i),
			Type: connectivity.ItemJunction,
			At:   []connectivity.Point{point(j.At)},
		})
	}
	for i, nc := range sch.NoConnects {
		add(&connectivity.Element{
			UID:  id(nc.UUID, "no_connect", i),
			Type: connectivity.ItemNoConnect,
			At:   []connectivity.Point{point(nc.At)},
		})
	}

	for i, l := range sch.Labels {
		kind := connectivity.ItemLocalLabel
		switch l.Kind {
		case GlobalLabel:
			kind = connectivity.ItemGlobalLabel
		case HierLabel:
			kind = connectivity.ItemHierLabel
		}
		add(&connectivity.Element{
			UID:   id(l.UUID, l.Kind.String(), i),
			Type:  kind,
			Label: l.Text,
			At:    []connectivity.Point{point(l.At.Position)},
		})
	}

	for i, sh := range sch.Sheets {
		child := instanceID(sh.UUID)
		for k, pin := range sh.Pins {
			uid := connectivity.ItemID(pin.UUID)
			if uid == "" {
				uid = connectivity.ItemID(fmt.Sprintf("%s/%s@%d", id(sh.UUID, "sheet", i), pin.Name, k))
			}
			add(&connectivity.Element{
				UID:   uid,
				Type:  connectivity.ItemSheetPin,
				Label: pin.Name,
				At:    []connectivity.Point{point(pin.At.Position)},
				Sheet: child,
			})
		}
	}
	return out
}

// segments splits a polyline into two-point items. Two-point lines keep
// their uuid, longer ones get "uuid#k".
func segments(uid connectivity.ItemID, kind connectivity.ItemKind, pts []Position) []*connectivity.Element {
	switch len(pts) {
	case 0:
		return nil
	case 1:
		return []*connectivity.Element{{UID: uid, Type: kind, At: []connectivity.Point{point(pts[0]), point(pts[0])}}}
	case 2:
		return []*connectivity.Element{{UID: uid, Type: kind, At: []connectivity.Point{point(pts[0]), point(pts[1])}}}
	}
	out := make([]*connectivity.Element, 0, len(pts)-1)
	for k := 0; k+1 < len(pts); k++ {
		out = append(out, &connectivity.Element{
			UID:  connectivity.ItemID(fmt.Sprintf("%s#%d", uid, k)),
			Type: kind,
			At:   []connectivity.Point{point(pts[k]), point(pts[k+1])},
		})
	}
	return out
}

func onAnyBus(buses []Line, p Position) bool {
	for _, b := range buses {
		for k := 0; k+1 < len(b.Points); k++ {
			if onSegment(b.Points[k], b.Points[k+1], p) {
				return true
			}
		}
	}
	return false
}

func onSegment(a, b, p Position) bool {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y) <= onSegmentTolerance
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	if t < 0 || t > 1 {
		return false
	}
	cx, cy := a.X+t*dx, a.Y+t*dy
	return math.Hypot(p.X-cx, p.Y-cy) <= onSegmentTolerance
}
