package generate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/question"
)

var systemPrompt = `Peran: penyusun soal kurikulum nasional Indonesia yang membuat soal HOTS bermakna.

Setiap soal wajib memiliki "explanation" berisi pembahasan langkah demi langkah:
1. Analisis Masalah: apa yang ditanyakan dan informasi kuncinya.
2. Langkah Penyelesaian: tahapan menjawab, satu langkah per baris.
3. Kesimpulan: alasan jawaban tersebut benar.
Pisahkan ketiga bagian dengan tiga baris baru dan setiap langkah dengan dua baris baru.

Aturan data:
- "type" memakai label persis: ` + typeList + `.
- "correctAnswer" untuk Pilihan Ganda berupa indeks 0-4; untuk Pilihan Jamak (MCMA) berupa array indeks seperti [0, 2]; untuk (Benar/Salah) dan (Sesuai/Tidak Sesuai) berupa array boolean yang panjangnya sama dengan jumlah pernyataan di "options"; untuk ISIAN dan URAIAN berupa teks jawaban.
- "options" paling banyak 5 butir dan kosong untuk ISIAN dan URAIAN.`

const feedbackSystemPrompt = `Anda asisten guru yang memberi umpan balik singkat dan memotivasi ketika siswa menjawab salah.`

const materialSystemPrompt = `Anda pengajar yang menyusun slide materi kelas yang jelas dan bermakna.`

var typeList = func() string {
	labels := make([]string, 0, len(answer.Types()))
	for _, t := range answer.Types() {
		labels = append(labels, fmt.Sprintf("%q", string(t)))
	}
	return strings.Join(labels, ", ")
}()

func typeLabels() []any {
	out := make([]any, 0, len(answer.Types()))
	for _, t := range answer.Types() {
		out = append(out, string(t))
	}
	return out
}

// buildGenerateMessage lists the requested composition and the shared fields.
func buildGenerateMessage(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Buatkan total %d soal latihan dengan rincian berikut.\n\n", req.Total())

	b.WriteString("Komposisi tipe soal:\n")
	for _, t := range answer.Types() {
		if n := req.TypeCounts[t]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d soal\n", t, n)
		}
	}

	var levels []string
	for _, l := range Levels {
		if n := req.LevelCounts[l]; n > 0 {
			levels = append(levels, fmt.Sprintf("- Level %s: %d soal", l, n))
		}
	}
	if len(levels) > 0 {
		b.WriteString("\nKomposisi level kognitif:\n")
		b.WriteString(strings.Join(levels, "\n"))
		b.WriteString("\n")
	}

	b.WriteString("\nSpesifikasi umum:\n")
	fmt.Fprintf(&b, "Mata Pelajaran: %s\n", req.Subject)
	fmt.Fprintf(&b, "Fase/Kelas: %s\n", req.Phase)
	fmt.Fprintf(&b, "Materi Utama: %s\n", req.Material)
	fmt.Fprintf(&b, "Token: %s\n", question.NormalizeToken(req.QuizToken))

	b.WriteString("\nSetiap soal harus unik dan pembahasannya memuat cara menjawab yang rinci.\n")

	if req.ReferenceText != "" {
		b.WriteString("\nReferensi materi:\n")
		b.WriteString(req.ReferenceText)
		b.WriteString("\n")
	}
	if req.ReferenceImage != nil {
		b.WriteString("\nGunakan gambar terlampir sebagai referensi.\n")
	}
	if req.SpecialInstructions != "" {
		b.WriteString("\nCatatan tambahan:\n")
		b.WriteString(req.SpecialInstructions)
		b.WriteString("\n")
	}

	return b.String()
}

func buildRepairMessage(rec question.Record) string {
	var b strings.Builder
	b.WriteString("Lengkapi opsi jawaban dan pembahasan langkah demi langkah.\n")
	fmt.Fprintf(&b, "Soal: %s\n", rec.Text)
	fmt.Fprintf(&b, "Tipe: %s\n", rec.Type)
	fmt.Fprintf(&b, "Kunci Jawaban Saat Ini: %s\n", answerJSON(rec.CorrectAnswer))
	return b.String()
}

func buildFeedbackMessage(rec question.Record, submitted answer.Value) string {
	opts, _ := json.Marshal(rec.Options)

	var b strings.Builder
	b.WriteString("Siswa menjawab soal berikut dengan salah.\n")
	fmt.Fprintf(&b, "Soal: %s\n", rec.Text)
	fmt.Fprintf(&b, "Opsi jawaban: %s\n", opts)
	fmt.Fprintf(&b, "Jawaban benar: %s\n", answerJSON(rec.CorrectAnswer))
	fmt.Fprintf(&b, "Jawaban siswa: %s\n", answerJSON(submitted))
	b.WriteString("\nBerikan komentar singkat yang memotivasi, paling banyak dua kalimat. ")
	b.WriteString("Tunjukkan letak kekeliruan logikanya tanpa menyebutkan jawaban benar secara langsung.")
	return b.String()
}

func buildMaterialMessage(records []question.Record) string {
	var b strings.Builder
	b.WriteString("Susun materi ajar (ringkasan konsep) untuk presentasi di kelas yang merangkum konsep kunci dari soal-soal berikut.\n\n")
	b.WriteString("Daftar soal:\n")
	for _, r := range records {
		fmt.Fprintf(&b, "[Soal %d - %s]: %s\n", r.Order, r.Type, r.Text)
	}
	b.WriteString("\nFormat: Markdown dengan poin-poin yang mudah dibaca di proyektor, rumus dalam $...$ bila relevan. ")
	b.WriteString("Struktur: Judul Materi, Konsep Kunci, Tips & Trik Menjawab Soal Sejenis. ")
	b.WriteString("Beri dua baris kosong di antara setiap subjudul.")
	return b.String()
}

func buildExplanationMessage(rec question.Record) string {
	q, _ := json.Marshal(rec)
	return fmt.Sprintf("Tuliskan pembahasan langkah demi langkah yang rinci untuk soal berikut: %s\n"+
		"Pisahkan bagian Analisis, Langkah dan Kesimpulan dengan tiga baris baru.", q)
}

func answerJSON(v answer.Value) string {
	b, err := json.Marshal(v)
	if err != nil {
		return v.String()
	}
	return string(b)
}
