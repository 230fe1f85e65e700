package testutil

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Placement is one stamped form XObject as it lands on a page.
type Placement struct {
	X, Y float64
	Text bool

	// Image forms.
	Width, Height float64

	// Text forms, in page space.
	BaselineX, BaselineY float64
	FontSize             float64
}

var (
	placementOp = regexp.MustCompile(`q ([-\d.]+) ([-\d.]+) ([-\d.]+) ([-\d.]+) ([-\d.]+) ([-\d.]+) cm /\S+ gs /(\S+) Do Q`)
	imageForm   = regexp.MustCompile(`q ([\d.]+) 0 0 ([\d.]+) 0 0 cm /Im0 Do Q`)
	textShift   = regexp.MustCompile(`([-\d.]+) ([-\d.]+) cm BT 0 Tw`)
	textOrigin  = regexp.MustCompile(`([-\d.]+) ([-\d.]+) Td \d+ Tr`)
	textSize    = regexp.MustCompile(`/\S+ ([\d.]+) Tf`)
)

// StampPlacements lists the stamped forms drawn on page, in content order.
// Template content outside stamped forms is ignored.
func StampPlacements(pdf []byte, page int) ([]Placement, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(bytes.NewReader(pdf), conf)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	pageDict, _, _, err := ctx.PageDict(page, true)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", page, err)
	}
	content, err := ctx.PageContent(pageDict, page)
	if err != nil {
		return nil, fmt.Errorf("page %d content: %w", page, err)
	}
	xobjects, err := pageXObjects(ctx, pageDict)
	if err != nil {
		return nil, err
	}

	var out []Placement
	for _, m := range placementOp.FindAllSubmatch(content, -1) {
		x, err := strconv.ParseFloat(string(m[5]), 64)
		if err != nil {
			return nil, err
		}
		y, err := strconv.ParseFloat(string(m[6]), 64)
		if err != nil {
			return nil, err
		}
		form, ok := xobjects[string(m[7])]
		if !ok {
			return nil, fmt.Errorf("form %s not in page resources", m[7])
		}
		p, err := describeForm(ctx, form)
		if err != nil {
			return nil, fmt.Errorf("form %s: %w", m[7], err)
		}
		p.X, p.Y = x, y
		p.BaselineX += x
		p.BaselineY += y
		out = append(out, p)
	}
	return out, nil
}

func pageXObjects(ctx *model.Context, pageDict types.Dict) (types.Dict, error) {
	res, ok := pageDict.Find("Resources")
	if !ok {
		return types.Dict{}, nil
	}
	resDict, err := ctx.DereferenceDict(res)
	if err != nil {
		return nil, fmt.Errorf("resources: %w", err)
	}
	xo, ok := resDict.Find("XObject")
	if !ok {
		return types.Dict{}, nil
	}
	d, err := ctx.DereferenceDict(xo)
	if err != nil {
		return nil, fmt.Errorf("xobjects: %w", err)
	}
	return d, nil
}

func describeForm(ctx *model.Context, form types.Object) (Placement, error) {
	sd, _, err := ctx.DereferenceStreamDict(form)
	if err != nil {
		return Placement{}, err
	}
	if sd == nil {
		return Placement{}, fmt.Errorf("not a stream")
	}
	if err := sd.Decode(); err != nil {
		return Placement{}, err
	}

	if m := imageForm.FindSubmatch(sd.Content); m != nil {
		w, _ := strconv.ParseFloat(string(m[1]), 64)
		h, _ := strconv.ParseFloat(string(m[2]), 64)
		return Placement{Width: w, Height: h}, nil
	}

	origin := textOrigin.FindSubmatch(sd.Content)
	if origin == nil {
		return Placement{}, fmt.Errorf("neither image nor text form: %q", sd.Content)
	}
	p := Placement{Text: true}
	p.BaselineX, _ = strconv.ParseFloat(string(origin[1]), 64)
	p.BaselineY, _ = strconv.ParseFloat(string(origin[2]), 64)
	if shift := textShift.FindSubmatch(sd.Content); shift != nil {
		dx, _ := strconv.ParseFloat(string(shift[1]), 64)
		dy, _ := strconv.ParseFloat(string(shift[2]), 64)
		p.BaselineX += dx
		p.BaselineY += dy
	}
	if size := textSize.FindSubmatch(sd.Content); size != nil {
		p.FontSize, _ = strconv.ParseFloat(string(size[1]), 64)
	}
	return p, nil
}
