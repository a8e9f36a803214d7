/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

const (
	ColorStyleTypeName     = "Core.ColorStyle"
	CapStyleTypeName       = "Core.CapStyle"
	CharacterStyleTypeName = "Core.CharacterStyle"
	FillStyleTypeName      = "Core.FillStyle"
	LineStyleTypeName      = "Core.LineStyle"
	ParagraphStyleTypeName = "Core.ParagraphStyle"
)

// Style is implemented by the six style kinds a design owns.
type Style interface {
	Entity
	StyleName() string
}

type styleBase struct {
	entity
	Name  string
	Title string
}

func (s *styleBase) StyleName() string  { return s.Name }
func (s *styleBase) Category() Category { return CategoryStyle }

func (s *styleBase) saveBase(w Writer) error {
	if err := w.WriteString(s.Name); err != nil {
		return err
	}
	return w.WriteString(s.Title)
}

func (s *styleBase) loadBase(r Reader) error {
	var err error
	if s.Name, err = r.ReadString(); err != nil {
		return err
	}
	s.Title, err = r.ReadString()
	return err
}

var styleBaseFields = []FieldInfo{
	Field("Name", FieldString),
	Field("Title", FieldString),
}

func styleFields(fields ...FieldInfo) []FieldInfo {
	out := make([]FieldInfo, 0, len(styleBaseFields)+len(fields))
	out = append(out, styleBaseFields...)
	return append(out, fields...)
}

// ColorStyleFields is the schema of ColorStyle.
var ColorStyleFields = styleFields(
	Field("Color", FieldInt32),
	Field("Transparency", FieldByte),
	Field("ConvertToGray", FieldBool),
)

// ColorStyle is an ARGB color with transparency.
type ColorStyle struct {
	styleBase
	Color         int32
	Transparency  byte
	ConvertToGray bool
}

// NewColorStyle returns an unidentified color style.
func NewColorStyle(name string, color int32) *ColorStyle {
	return &ColorStyle{styleBase: styleBase{Name: name}, Color: color}
}

func (s *ColorStyle) TypeName() string { return ColorStyleTypeName }

func (s *ColorStyle) SaveFields(w Writer, version int) error {
	if err := s.saveBase(w); err != nil {
		return err
	}
	if err := w.WriteInt32(s.Color); err != nil {
		return err
	}
	if err := w.WriteByte(s.Transparency); err != nil {
		return err
	}
	return w.WriteBool(s.ConvertToGray)
}

func (s *ColorStyle) LoadFields(r Reader, version int) error {
	if err := s.loadBase(r); err != nil {
		return err
	}
	var err error
	if s.Color, err = r.ReadInt32(); err != nil {
		return err
	}
	if s.Transparency, err = r.ReadByte(); err != nil {
		return err
	}
	s.ConvertToGray, err = r.ReadBool()
	return err
}

// CapStyleFields is the schema of CapStyle.
var CapStyleFields = styleFields(
	Field("CapShape", FieldByte),
	Field("CapSize", FieldInt16),
	Ref("ColorStyle", CategoryStyle),
)

// CapStyle describes line end caps.
type CapStyle struct {
	styleBase
	CapShape   byte
	CapSize    int16
	ColorStyle *ColorStyle
}

// NewCapStyle returns an unidentified cap style.
func NewCapStyle(name string) *CapStyle {
	return &CapStyle{styleBase: styleBase{Name: name}}
}

func (s *CapStyle) TypeName() string { return CapStyleTypeName }

func (s *CapStyle) SaveFields(w Writer, version int) error {
	if err := s.saveBase(w); err != nil {
		return err
	}
	if err := w.WriteByte(s.CapShape); err != nil {
		return err
	}
	if err := w.WriteInt16(s.CapSize); err != nil {
		return err
	}
	return w.WriteColorStyle(s.ColorStyle)
}

func (s *CapStyle) LoadFields(r Reader, version int) error {
	if err := s.loadBase(r); err != nil {
		return err
	}
	var err error
	if s.CapShape, err = r.ReadByte(); err != nil {
		return err
	}
	if s.CapSize, err = r.ReadInt16(); err != nil {
		return err
	}
	s.ColorStyle, err = r.ReadColorStyle()
	return err
}

// CharacterStyleFields is the schema of CharacterStyle.
var CharacterStyleFields = styleFields(
	Field("FontName", FieldString),
	Field("Size", FieldFloat),
	Field("FontStyle", FieldByte),
	Ref("ColorStyle", CategoryStyle),
)

// CharacterStyle describes the font of shape text.
type CharacterStyle struct {
	styleBase
	FontName   string
	Size       float32
	FontStyle  byte
	ColorStyle *ColorStyle
}

// NewCharacterStyle returns an unidentified character style.
func NewCharacterStyle(name, fontName string, size float32) *CharacterStyle {
	return &CharacterStyle{styleBase: styleBase{Name: name}, FontName: fontName, Size: size}
}

func (s *CharacterStyle) TypeName() string { return CharacterStyleTypeName }

func (s *CharacterStyle) SaveFields(w Writer, version int) error {
	if err := s.saveBase(w); err != nil {
		return err
	}
	if err := w.WriteString(s.FontName); err != nil {
		return err
	}
	if err := w.WriteFloat(s.Size); err != nil {
		return err
	}
	if err := w.WriteByte(s.FontStyle); err != nil {
		return err
	}
	return w.WriteColorStyle(s.ColorStyle)
}

func (s *CharacterStyle) LoadFields(r Reader, version int) error {
	if err := s.loadBase(r); err != nil {
		return err
	}
	var err error
	if s.FontName, err = r.ReadString(); err != nil {
		return err
	}
	if s.Size, err = r.ReadFloat(); err != nil {
		return err
	}
	if s.FontStyle, err = r.ReadByte(); err != nil {
		return err
	}
	s.ColorStyle, err = r.ReadColorStyle()
	return err
}

// FillStyleFields is the schema of FillStyle.
var FillStyleFields = styleFields(
	Ref("BaseColorStyle", CategoryStyle),
	Ref("AdditionalColorStyle", CategoryStyle),
	Field("FillMode", FieldByte),
	Field("GradientAngle", FieldInt16),
	Field("Image", FieldImage),
	Field("ImageLayout", FieldByte),
)

// FillStyle describes how shape interiors are painted.
type FillStyle struct {
	styleBase
	BaseColorStyle       *ColorStyle
	AdditionalColorStyle *ColorStyle
	FillMode             byte
	GradientAngle        int16
	Image                *NamedImage
	ImageLayout          byte
}

// NewFillStyle returns an unidentified fill style painted with base.
func NewFillStyle(name string, base *ColorStyle) *FillStyle {
	return &FillStyle{styleBase: styleBase{Name: name}, BaseColorStyle: base}
}

func (s *FillStyle) TypeName() string { return FillStyleTypeName }

func (s *FillStyle) SaveFields(w Writer, version int) error {
	if err := s.saveBase(w); err != nil {
		return err
	}
	if err := w.WriteColorStyle(s.BaseColorStyle); err != nil {
		return err
	}
	if err := w.WriteColorStyle(s.AdditionalColorStyle); err != nil {
		return err
	}
	if err := w.WriteByte(s.FillMode); err != nil {
		return err
	}
	if err := w.WriteInt16(s.GradientAngle); err != nil {
		return err
	}
	if err := w.WriteImage(s.Image); err != nil {
		return err
	}
	return w.WriteByte(s.ImageLayout)
}

func (s *FillStyle) LoadFields(r Reader, version int) error {
	if err := s.loadBase(r); err != nil {
		return err
	}
	var err error
	if s.BaseColorStyle, err = r.ReadColorStyle(); err != nil {
		return err
	}
	if s.AdditionalColorStyle, err = r.ReadColorStyle(); err != nil {
		return err
	}
	if s.FillMode, err = r.ReadByte(); err != nil {
		return err
	}
	if s.GradientAngle, err = r.ReadInt16(); err != nil {
		return err
	}
	if s.Image, err = r.ReadImage(); err != nil {
		return err
	}
	s.ImageLayout, err = r.ReadByte()
	return err
}

// LineStyleFields is the schema of LineStyle.
var LineStyleFields = styleFields(
	Field("LineWidth", FieldInt32),
	Field("DashType", FieldByte),
	Ref("ColorStyle", CategoryStyle),
	Field("LineJoin", FieldByte),
)

// LineStyle describes shape outlines.
type LineStyle struct {
	styleBase
	LineWidth  int32
	DashType   byte
	ColorStyle *ColorStyle
	LineJoin   byte
}

// NewLineStyle returns an unidentified line style.
func NewLineStyle(name string, width int32, color *ColorStyle) *LineStyle {
	return &LineStyle{styleBase: styleBase{Name: name}, LineWidth: width, ColorStyle: color}
}

func (s *LineStyle) TypeName() string { return LineStyleTypeName }

func (s *LineStyle) SaveFields(w Writer, version int) error {
	if err := s.saveBase(w); err != nil {
		return err
	}
	if err := w.WriteInt32(s.LineWidth); err != nil {
		return err
	}
	if err := w.WriteByte(s.DashType); err != nil {
		return err
	}
	if err := w.WriteColorStyle(s.ColorStyle); err != nil {
		return err
	}
	return w.WriteByte(s.LineJoin)
}

func (s *LineStyle) LoadFields(r Reader, version int) error {
	if err := s.loadBase(r); err != nil {
		return err
	}
	var err error
	if s.LineWidth, err = r.ReadInt32(); err != nil {
		return err
	}
	if s.DashType, err = r.ReadByte(); err != nil {
		return err
	}
	if s.ColorStyle, err = r.ReadColorStyle(); err != nil {
		return err
	}
	s.LineJoin, err = r.ReadByte()
	return err
}

// ParagraphStyleFields is the schema of ParagraphStyle.
var ParagraphStyleFields = styleFields(
	Field("Alignment", FieldByte),
	Field("Trimming", FieldByte),
	Field("EllipsisChar", FieldChar),
	Field("WordWrap", FieldBool),
	Field("Padding", FieldDouble),
)

// ParagraphStyle describes text layout within a shape.
type ParagraphStyle struct {
	styleBase
	Alignment    byte
	Trimming     byte
	EllipsisChar rune
	WordWrap     bool
	Padding      float64
}

// NewParagraphStyle returns an unidentified paragraph style.
func NewParagraphStyle(name string) *ParagraphStyle {
	return &ParagraphStyle{styleBase: styleBase{Name: name}, EllipsisChar: '…', WordWrap: true}
}

func (s *ParagraphStyle) TypeName() string { return ParagraphStyleTypeName }

func (s *ParagraphStyle) SaveFields(w Writer, version int) error {
	if err := s.saveBase(w); err != nil {
		return err
	}
	if err := w.WriteByte(s.Alignment); err != nil {
		return err
	}
	if err := w.WriteByte(s.Trimming); err != nil {
		return err
	}
	if err := w.WriteChar(s.EllipsisChar); err != nil {
		return err
	}
	if err := w.WriteBool(s.WordWrap); err != nil {
		return err
	}
	return w.WriteDouble(s.Padding)
}

func (s *ParagraphStyle) LoadFields(r Reader, version int) error {
	if err := s.loadBase(r); err != nil {
		return err
	}
	var err error
	if s.Alignment, err = r.ReadByte(); err != nil {
		return err
	}
	if s.Trimming, err = r.ReadByte(); err != nil {
		return err
	}
	if s.EllipsisChar, err = r.ReadChar(); err != nil {
		return err
	}
	if s.WordWrap, err = r.ReadBool(); err != nil {
		return err
	}
	s.Padding, err = r.ReadDouble()
	return err
}
