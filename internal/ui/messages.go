package ui

// Toast texts shown to reviewers.
const (
	ToastLoadFailed          = "Gagal memuat laporan"
	ToastApproved            = "Laporan berhasil disetujui"
	ToastRejected            = "Laporan berhasil ditolak"
	ToastApproveFailed       = "Gagal menyetujui laporan"
	ToastRejectFailed        = "Gagal menolak laporan"
	ToastReasonRequired      = "Alasan penolakan wajib diisi"
	ToastEmptySelection      = "Pilih minimal satu laporan terlebih dahulu"
	ToastBulkApproved        = "%d laporan berhasil disetujui"
	ToastBulkRejected        = "%d laporan berhasil ditolak"
	ToastAllRead             = "Semua notifikasi ditandai sudah dibaca"
	ToastDeleted             = "Notifikasi dihapus"
	ToastAllDeleted          = "Semua notifikasi dihapus"
	ToastNotificationFailed  = "Gagal memperbarui notifikasi"
	ToastInFlight            = "Laporan sedang diproses"
	ToastPreferencesSaved    = "Preferensi notifikasi disimpan"
	ToastPreferencesFailed   = "Gagal menyimpan preferensi notifikasi"
	ToastNotificationsFailed = "Gagal memuat notifikasi"
)

// ToastMsg asks the root model to show a transient message.
type ToastMsg struct {
	Text    string
	IsError bool
}
